package backends

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"

	"git.home.luguber.info/inful/docforge/internal/builder"
	"git.home.luguber.info/inful/docforge/internal/logfields"
)

// HTMLZip renders the markdown site and ships it as a single zip archive.
type HTMLZip struct {
	docsDir string
}

// NewHTMLZip returns the htmlzip backend.
func NewHTMLZip(docsDir string) *HTMLZip { return &HTMLZip{docsDir: docsDir} }

func (z *HTMLZip) Type() string { return "htmlzip" }

func (z *HTMLZip) OldArtifactPath(lc *builder.Lifecycle) string {
	return buildDir(lc, "htmlzip")
}

func (z *HTMLZip) Build(ctx context.Context, lc *builder.Lifecycle) error {
	logForced(lc)
	src := docsDir(lc, z.docsDir)
	if err := lc.CreateIndexIn(src, "md"); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	staging := filepath.Join(lc.CheckoutPath(), "_build", "htmlzip-staging")
	defer func() { _ = os.RemoveAll(staging) }()

	if _, err := renderSite(ctx, src, staging); err != nil {
		return err
	}

	out := lc.OldArtifactPath()
	if err := os.RemoveAll(out); err != nil {
		return err
	}
	if err := os.MkdirAll(out, 0o750); err != nil {
		return err
	}
	archive := filepath.Join(out, lc.Project().Slug+".zip")
	if err := writeZip(staging, archive, lc.Project().Slug); err != nil {
		return fmt.Errorf("write %s: %w", archive, err)
	}
	lc.Logger().Info("Wrote html archive", logfields.Path(archive))
	return nil
}

// writeZip archives the tree at src into dst, with every entry under prefix/.
func writeZip(src, dst, prefix string) (err error) {
	f, err := os.Create(dst) // #nosec G304 -- archive path is derived from the project layout
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	zw := zip.NewWriter(f)
	defer func() {
		if cerr := zw.Close(); err == nil {
			err = cerr
		}
	}()

	return filepath.WalkDir(src, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = prefix + "/" + filepath.ToSlash(rel)
		hdr.Method = zip.Deflate

		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		in, err := os.Open(p) // #nosec G304 -- walking the staging tree
		if err != nil {
			return err
		}
		defer func() { _ = in.Close() }()
		_, err = io.Copy(w, in)
		return err
	})
}
