package backends

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docforge/internal/builder"
	"git.home.luguber.info/inful/docforge/internal/config"
	"git.home.luguber.info/inful/docforge/internal/environment"
	"git.home.luguber.info/inful/docforge/internal/project"
)

// recordingEnv records commands instead of running them.
type recordingEnv struct {
	project project.Project
	version project.Version
	runs    []environment.Command
}

func (r *recordingEnv) Project() project.Project { return r.project }
func (r *recordingEnv) Version() project.Version { return r.version }
func (r *recordingEnv) Run(_ context.Context, cmd environment.Command) (*environment.Result, error) {
	r.runs = append(r.runs, cmd)
	return &environment.Result{Args: cmd.Args, Dir: cmd.Dir}, nil
}

func newProject(t *testing.T) (project.Project, project.Version, string) {
	t.Helper()
	p, err := project.New("demo", t.TempDir())
	require.NoError(t, err)
	v := project.Version{Slug: "latest"}
	checkout := p.CheckoutPath(v.Slug)
	require.NoError(t, os.MkdirAll(checkout, 0o750))
	return p, v, checkout
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestLookup(t *testing.T) {
	cfg := &config.Config{}
	for _, name := range []string{"html", "htmlzip", "hugo", "mkdocs"} {
		b, err := Lookup(name, cfg)
		require.NoError(t, err, name)
		require.NotNil(t, b)
	}

	_, err := Lookup("latex", cfg)
	require.ErrorIs(t, err, ErrUnknownBackend)

	_, err = Lookup("command", cfg)
	require.ErrorIs(t, err, ErrCommandNotConfigured)

	cfg.Backends.Command = config.CommandBackendConfig{Type: "epub", Args: []string{"make", "epub"}}
	b, err := Lookup("command", cfg)
	require.NoError(t, err)
	assert.Equal(t, "epub", b.Type())

	assert.True(t, sort.StringsAreSorted(Names()))
	assert.True(t, IsRegistered("htmlzip"))
	assert.False(t, IsRegistered("latex"))
}

func TestMarkdown_Build(t *testing.T) {
	p, v, checkout := newProject(t)
	writeFiles(t, checkout, map[string]string{
		"docs/index.md":          "# Home\n\nSee [the guide](guide.md#setup) and [api](api/README.md).\n",
		"docs/guide.md":          "# Guide\n\n## Setup\n\n[external](https://example.com/x.md)\n",
		"docs/api/README.md":     "# API\n",
		"docs/img/logo.png":      "png",
		"docs/.hidden/secret.md": "# nope\n",
	})

	lc, err := builder.New(environment.NewLocal(p, v), NewMarkdown(""))
	require.NoError(t, err)
	assert.Equal(t, "html", lc.Type())
	assert.Equal(t, filepath.Join(checkout, "_build", "html"), lc.OldArtifactPath())

	require.NoError(t, lc.Build(t.Context()))

	out := lc.OldArtifactPath()
	index := readFile(t, filepath.Join(out, "index.html"))
	assert.Contains(t, index, "<title>Home</title>")
	assert.Contains(t, index, `href="guide.html#setup"`)
	assert.Contains(t, index, `href="api/index.html"`)

	guide := readFile(t, filepath.Join(out, "guide.html"))
	assert.Contains(t, guide, `href="https://example.com/x.md"`)
	assert.Contains(t, guide, `id="setup"`)

	assert.FileExists(t, filepath.Join(out, "api", "index.html"))
	assert.Equal(t, "png", readFile(t, filepath.Join(out, "img", "logo.png")))
	assert.NoDirExists(t, filepath.Join(out, ".hidden"))

	require.NoError(t, lc.Move())
	assert.FileExists(t, filepath.Join(lc.Target(), "index.html"))
}

func TestMarkdown_CreatesPlaceholderIndex(t *testing.T) {
	p, v, checkout := newProject(t)
	writeFiles(t, checkout, map[string]string{"docs/page.md": "# Page\n"})

	lc, err := builder.New(environment.NewLocal(p, v), NewMarkdown(""))
	require.NoError(t, err)
	require.NoError(t, lc.Build(t.Context()))

	assert.FileExists(t, filepath.Join(checkout, "docs", "index.md"))
	assert.Contains(t, readFile(t, filepath.Join(lc.OldArtifactPath(), "index.html")), "Welcome to docforge")
}

func TestMarkdown_ReadmeBesideIndex(t *testing.T) {
	p, v, checkout := newProject(t)
	writeFiles(t, checkout, map[string]string{
		"docs/index.md":  "# Index\n\n[readme](README.md)\n",
		"docs/README.md": "# Readme\n",
	})

	lc, err := builder.New(environment.NewLocal(p, v), NewMarkdown(""))
	require.NoError(t, err)
	require.NoError(t, lc.Build(t.Context()))

	out := lc.OldArtifactPath()
	assert.Contains(t, readFile(t, filepath.Join(out, "index.html")), `href="README.html"`)
	assert.FileExists(t, filepath.Join(out, "README.html"))
}

func TestMarkdown_DocsDirOverride(t *testing.T) {
	p, v, checkout := newProject(t)
	writeFiles(t, checkout, map[string]string{
		"docs/index.md":   "# Wrong\n",
		"manual/index.md": "# Manual\n",
	})

	lc, err := builder.New(environment.NewLocal(p, v), NewMarkdown("manual"))
	require.NoError(t, err)
	require.NoError(t, lc.Build(t.Context()))
	assert.Contains(t, readFile(t, filepath.Join(lc.OldArtifactPath(), "index.html")), "<title>Manual</title>")
}

func TestMarkdown_DocsDirOverrideWithoutIndex(t *testing.T) {
	p, v, checkout := newProject(t)
	writeFiles(t, checkout, map[string]string{"manual/guide.md": "# Guide\n"})

	lc, err := builder.New(environment.NewLocal(p, v), NewMarkdown("manual"))
	require.NoError(t, err)
	require.NoError(t, lc.Build(t.Context()))

	assert.FileExists(t, filepath.Join(checkout, "manual", "index.md"))
	assert.NoFileExists(t, filepath.Join(checkout, "index.md"))
	require.FileExists(t, filepath.Join(lc.OldArtifactPath(), "index.html"))
	assert.FileExists(t, filepath.Join(lc.OldArtifactPath(), "guide.html"))
}

func TestMkDocs_DocsDirOverride(t *testing.T) {
	p, v, checkout := newProject(t)
	writeFiles(t, checkout, map[string]string{"site-src/guide.md": "# Guide\n"})
	env := &recordingEnv{project: p, version: v}

	lc, err := builder.New(env, NewMkDocs("site-src"))
	require.NoError(t, err)
	require.NoError(t, lc.Build(t.Context()))

	assert.FileExists(t, filepath.Join(checkout, "site-src", "index.md"))
	assert.NoFileExists(t, filepath.Join(checkout, "index.md"))
}

func TestMarkdown_Canceled(t *testing.T) {
	p, v, checkout := newProject(t)
	writeFiles(t, checkout, map[string]string{"docs/index.md": "# Home\n"})

	lc, err := builder.New(environment.NewLocal(p, v), NewMarkdown(""))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	require.ErrorIs(t, lc.Build(ctx), context.Canceled)
}

func TestHTMLZip_Build(t *testing.T) {
	p, v, checkout := newProject(t)
	writeFiles(t, checkout, map[string]string{
		"docs/index.md":     "# Home\n",
		"docs/img/logo.png": "png",
	})

	lc, err := builder.New(environment.NewLocal(p, v), NewHTMLZip(""))
	require.NoError(t, err)
	require.NoError(t, lc.Build(t.Context()))

	archive := filepath.Join(lc.OldArtifactPath(), "demo.zip")
	zr, err := zip.OpenReader(archive)
	require.NoError(t, err)
	defer func() { _ = zr.Close() }()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"demo/index.html", "demo/img/logo.png"}, names)
	assert.NoDirExists(t, filepath.Join(checkout, "_build", "htmlzip-staging"))

	require.NoError(t, lc.Move())
	assert.FileExists(t, filepath.Join(p.Root, "demo", "artifacts", "latest", "htmlzip", "demo.zip"))
}

func TestHugo_Build(t *testing.T) {
	p, v, checkout := newProject(t)
	writeFiles(t, checkout, map[string]string{"docs/hugo.toml": ""})
	env := &recordingEnv{project: p, version: v}

	lc, err := builder.New(env, NewHugo("", "--minify"))
	require.NoError(t, err)
	docs := filepath.Join(checkout, "docs")
	assert.Equal(t, filepath.Join(docs, "public"), lc.OldArtifactPath())

	require.NoError(t, lc.Build(t.Context()))
	require.Len(t, env.runs, 1)
	assert.Equal(t, []string{"hugo", "--destination", filepath.Join(docs, "public"), "--minify"}, env.runs[0].Args)
	assert.Equal(t, docs, env.runs[0].Dir)
}

func TestMkDocs_Build(t *testing.T) {
	p, v, checkout := newProject(t)
	env := &recordingEnv{project: p, version: v}

	lc, err := builder.New(env, NewMkDocs(""))
	require.NoError(t, err)
	require.NoError(t, lc.Build(t.Context()))

	require.Len(t, env.runs, 1)
	assert.Equal(t, []string{"mkdocs", "build", "--clean", "--site-dir", filepath.Join(checkout, "_build", "html")}, env.runs[0].Args)
	assert.Equal(t, checkout, env.runs[0].Dir)
	assert.FileExists(t, filepath.Join(checkout, "index.md"))
}

func TestCommand_Build(t *testing.T) {
	p, v, checkout := newProject(t)
	writeFiles(t, checkout, map[string]string{"docs/index.md": "# Home\n"})

	backend, err := NewCommand("", config.CommandBackendConfig{
		Type:   "pdf",
		Args:   []string{"sh", "-c", `mkdir -p "$DOCFORGE_OUTPUT" && cat index.md > "$DOCFORGE_OUTPUT/$DOCFORGE_PROJECT-$DOCFORGE_VERSION.pdf"`},
		Output: "out/pdf",
	})
	require.NoError(t, err)

	lc, err := builder.New(environment.NewLocal(p, v), backend)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(checkout, "out", "pdf"), lc.OldArtifactPath())

	require.NoError(t, lc.Build(t.Context()))
	require.NoError(t, lc.Move())
	assert.Equal(t, "# Home\n", readFile(t, filepath.Join(lc.Target(), "demo-latest.pdf")))
}

func TestCommand_Failure(t *testing.T) {
	p, v, _ := newProject(t)
	backend, err := NewCommand("", config.CommandBackendConfig{Args: []string{"sh", "-c", "exit 3"}})
	require.NoError(t, err)

	lc, err := builder.New(environment.NewLocal(p, v), backend)
	require.NoError(t, err)

	err = lc.Build(t.Context())
	var cmdErr *environment.CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 3, cmdErr.Result.ExitCode)
}

func TestCommand_InvalidType(t *testing.T) {
	_, err := NewCommand("", config.CommandBackendConfig{Type: "PDF!", Args: []string{"true"}})
	require.ErrorIs(t, err, project.ErrInvalidType)
}
