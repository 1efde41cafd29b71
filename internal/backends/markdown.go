package backends

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/docforge/internal/builder"
	"git.home.luguber.info/inful/docforge/internal/fsutil"
	"git.home.luguber.info/inful/docforge/internal/logfields"
)

// Markdown renders a tree of markdown files to static HTML.
type Markdown struct {
	docsDir string
}

// NewMarkdown returns the html backend. docsDir overrides docs directory
// probing when non-empty.
func NewMarkdown(docsDir string) *Markdown { return &Markdown{docsDir: docsDir} }

func (m *Markdown) Type() string { return "html" }

func (m *Markdown) OldArtifactPath(lc *builder.Lifecycle) string {
	return buildDir(lc, "html")
}

func (m *Markdown) Build(ctx context.Context, lc *builder.Lifecycle) error {
	logForced(lc)
	src := docsDir(lc, m.docsDir)
	if err := lc.CreateIndexIn(src, "md"); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	out := lc.OldArtifactPath()
	n, err := renderSite(ctx, src, out)
	if err != nil {
		return err
	}
	lc.Logger().Info("Rendered markdown site", logfields.Source(src), logfields.Target(out), "pages", n)
	return nil
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
{{.Body}}
</body>
</html>
`))

type page struct {
	Title string
	Body  template.HTML
}

var srcDirKey = parser.NewContextKey()

// renderSite renders every .md file under src into a fresh out, copying other
// files verbatim. It returns the number of pages written. Hidden entries and
// the _build directory are skipped.
func renderSite(ctx context.Context, src, out string) (int, error) {
	if err := os.RemoveAll(out); err != nil {
		return 0, err
	}
	if err := os.MkdirAll(out, 0o750); err != nil {
		return 0, err
	}
	absOut, err := filepath.Abs(out)
	if err != nil {
		return 0, err
	}
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(util.Prioritized(linkRewriter{}, 100)),
		),
	)

	pages := 0
	err = filepath.WalkDir(src, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if strings.HasPrefix(name, ".") || name == "_build" {
				return filepath.SkipDir
			}
			if abs, _ := filepath.Abs(p); abs == absOut {
				return filepath.SkipDir
			}
			return os.MkdirAll(filepath.Join(out, rel), 0o750)
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(name), ".md") {
			if !d.Type().IsRegular() {
				return nil
			}
			return fsutil.CopyFile(p, filepath.Join(out, rel))
		}
		dst := filepath.Join(out, filepath.Dir(rel), pageName(filepath.Dir(p), name))
		if err := renderPage(md, p, dst); err != nil {
			return fmt.Errorf("render %s: %w", rel, err)
		}
		pages++
		return nil
	})
	return pages, err
}

func renderPage(md goldmark.Markdown, srcPath, dst string) error {
	source, err := os.ReadFile(srcPath) // #nosec G304 -- path comes from walking the docs dir
	if err != nil {
		return err
	}
	pc := parser.NewContext()
	pc.Set(srcDirKey, filepath.Dir(srcPath))
	doc := md.Parser().Parse(text.NewReader(source), parser.WithContext(pc))

	var body bytes.Buffer
	if err := md.Renderer().Render(&body, source, doc); err != nil {
		return err
	}
	title := firstHeading(doc, source)
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	}

	var buf bytes.Buffer
	// #nosec G203 -- body is goldmark output, which escapes raw HTML by default
	if err := pageTemplate.Execute(&buf, page{Title: title, Body: template.HTML(body.String())}); err != nil {
		return err
	}
	return os.WriteFile(dst, buf.Bytes(), 0o644) // #nosec G306 -- docs are published
}

// pageName maps a markdown file name to its HTML name. index.md becomes
// index.html, and so does README.md when no index.md sits beside it.
func pageName(dir, name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if strings.EqualFold(base, "readme") && !hasIndex(dir) {
		return "index.html"
	}
	return base + ".html"
}

func hasIndex(dir string) bool {
	return fsutil.Exists(filepath.Join(dir, "index.md"))
}

func firstHeading(doc gmast.Node, source []byte) string {
	var title string
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if h, ok := n.(*gmast.Heading); ok && h.Level == 1 {
			title = headingText(h, source)
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	return title
}

func headingText(n gmast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*gmast.Text); ok {
			b.Write(t.Segment.Value(source))
			continue
		}
		b.WriteString(headingText(c, source))
	}
	return b.String()
}

// linkRewriter points relative links at rendered .md files to their .html
// counterparts.
type linkRewriter struct{}

func (linkRewriter) Transform(doc *gmast.Document, _ text.Reader, pc parser.Context) {
	dir, _ := pc.Get(srcDirKey).(string)
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if link, ok := n.(*gmast.Link); ok {
			link.Destination = []byte(rewriteLink(dir, string(link.Destination)))
		}
		return gmast.WalkContinue, nil
	})
}

func rewriteLink(dir, dest string) string {
	u, err := url.Parse(dest)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" || strings.HasPrefix(u.Path, "/") {
		return dest
	}
	if !strings.EqualFold(path.Ext(u.Path), ".md") {
		return dest
	}
	linkDir, name := path.Split(u.Path)
	u.Path = linkDir + pageName(filepath.Join(dir, filepath.FromSlash(linkDir)), name)
	return u.String()
}
