// Package checkout materializes one version of a project repository on disk
// using go-git.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/docforge/internal/logfields"
)

// ErrRefNotFound is returned when a ref matches no branch, tag or commit.
var ErrRefNotFound = errors.New("ref not found")

var fetchRefSpecs = []ggitcfg.RefSpec{
	"+refs/heads/*:refs/remotes/origin/*",
	"+refs/tags/*:refs/tags/*",
}

// Client checks out repositories.
type Client struct {
	depth int
}

// NewClient returns a Client doing full clones.
func NewClient() *Client { return &Client{} }

// WithDepth enables shallow clones and fetches (fluent helper).
func (c *Client) WithDepth(depth int) *Client { c.depth = depth; return c }

// Result describes a completed checkout.
type Result struct {
	Path   string
	Ref    string
	Commit string
	Cloned bool
}

// Checkout brings dest to ref of the repository at url. A missing dest is
// cloned; an existing one is fetched and reset. Branch refs track
// origin/<branch>; tags and commits leave HEAD detached. An empty ref keeps
// the currently checked out branch.
func (c *Client) Checkout(ctx context.Context, url, ref, dest string) (*Result, error) {
	repo, cloned, err := c.openOrClone(ctx, url, dest)
	if err != nil {
		return nil, err
	}

	branch, hash, err := resolve(repo, ref)
	if err != nil {
		return nil, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("worktree: %w", err)
	}

	opts := &git.CheckoutOptions{Force: true}
	if branch != "" {
		if err := repo.Storer.SetReference(plumbing.NewHashReference(branch, hash)); err != nil {
			return nil, fmt.Errorf("set branch %s: %w", branch.Short(), err)
		}
		opts.Branch = branch
	} else {
		opts.Hash = hash
	}
	if err := wt.Checkout(opts); err != nil {
		return nil, fmt.Errorf("checkout %s: %w", ref, err)
	}

	res := &Result{Path: dest, Ref: ref, Commit: hash.String(), Cloned: cloned}
	slog.Info("Checked out repository",
		logfields.URL(url),
		logfields.Ref(ref),
		slog.String("commit", shortHash(hash)),
		logfields.Path(dest),
		slog.Bool("cloned", cloned))
	return res, nil
}

func (c *Client) openOrClone(ctx context.Context, url, dest string) (*git.Repository, bool, error) {
	if _, err := os.Stat(filepath.Join(dest, ".git")); err == nil {
		repo, err := git.PlainOpen(dest)
		if err != nil {
			return nil, false, fmt.Errorf("open repo: %w", err)
		}
		slog.Debug("Fetching repository", logfields.URL(url), logfields.Path(dest))
		fetchOpts := &git.FetchOptions{RemoteName: "origin", Tags: git.NoTags, RefSpecs: fetchRefSpecs, Force: true}
		if c.depth > 0 {
			fetchOpts.Depth = c.depth
		}
		if err := repo.FetchContext(ctx, fetchOpts); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return nil, false, fmt.Errorf("fetch %s: %w", url, err)
		}
		return repo, false, nil
	}

	slog.Debug("Cloning repository", logfields.URL(url), logfields.Path(dest))
	if err := os.RemoveAll(dest); err != nil {
		return nil, false, fmt.Errorf("failed to remove existing directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return nil, false, fmt.Errorf("create checkout parent: %w", err)
	}
	cloneOpts := &git.CloneOptions{URL: url}
	if c.depth > 0 {
		cloneOpts.Depth = c.depth
	}
	repo, err := git.PlainCloneContext(ctx, dest, false, cloneOpts)
	if err != nil {
		return nil, false, fmt.Errorf("failed to clone repository %s: %w", url, err)
	}
	return repo, true, nil
}

// resolve maps ref to a commit. branch is non-empty when ref names a remote
// branch that the local branch of the same name should follow.
func resolve(repo *git.Repository, ref string) (plumbing.ReferenceName, plumbing.Hash, error) {
	if ref == "" {
		head, err := repo.Head()
		if err != nil {
			return "", plumbing.ZeroHash, fmt.Errorf("resolve HEAD: %w", err)
		}
		if !head.Name().IsBranch() {
			return "", head.Hash(), nil
		}
		ref = head.Name().Short()
	}

	if r, err := repo.Reference(plumbing.NewRemoteReferenceName("origin", ref), true); err == nil {
		return plumbing.NewBranchReferenceName(ref), r.Hash(), nil
	}
	for _, rev := range []string{"refs/tags/" + ref, ref} {
		if h, err := repo.ResolveRevision(plumbing.Revision(rev)); err == nil {
			return "", *h, nil
		}
	}
	return "", plumbing.ZeroHash, fmt.Errorf("%w: %s", ErrRefNotFound, ref)
}

func shortHash(h plumbing.Hash) string {
	s := h.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
