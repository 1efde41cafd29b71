package project

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_ResolvesAbsoluteRoot(t *testing.T) {
	p, err := New("demo", "relative/root")
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(p.Root))
	require.Equal(t, "demo", p.Slug)
}

func TestNew_RejectsInvalidSlug(t *testing.T) {
	_, err := New("Bad Slug", t.TempDir())
	require.ErrorIs(t, err, ErrInvalidSlug)
}

func TestArtifactPath(t *testing.T) {
	root := t.TempDir()
	p := Project{Slug: "demo", Root: root}

	got, err := p.ArtifactPath("latest", "html")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "demo", "artifacts", "latest", "html"), got)
}

func TestArtifactPath_Invalid(t *testing.T) {
	p := Project{Slug: "demo", Root: t.TempDir()}

	tests := []struct {
		name    string
		version string
		typ     string
		want    error
	}{
		{"empty version", "", "html", ErrInvalidSlug},
		{"traversal version", "../etc", "html", ErrInvalidSlug},
		{"hidden version", ".git", "html", ErrInvalidSlug},
		{"empty type", "latest", "", ErrInvalidType},
		{"type with separator", "latest", "html/zip", ErrInvalidType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ArtifactPath(tt.version, tt.typ)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCheckoutPath(t *testing.T) {
	p := Project{Slug: "demo", Root: "/srv/docs"}
	require.Equal(t, filepath.Join("/srv/docs", "demo", "checkouts", "v1.2"), p.CheckoutPath("v1.2"))
}

func TestValidateSlug(t *testing.T) {
	for _, ok := range []string{"latest", "v1.2.3", "release_2024", "a"} {
		require.NoError(t, ValidateSlug(ok), ok)
	}
	for _, bad := range []string{"", "UPPER", "with space", "-dash", "a/b"} {
		require.ErrorIs(t, ValidateSlug(bad), ErrInvalidSlug, bad)
	}
}

func TestValidateType(t *testing.T) {
	require.NoError(t, ValidateType("htmlzip"))
	require.ErrorIs(t, ValidateType("PDF"), ErrInvalidType)
	require.ErrorIs(t, ValidateType(""), ErrInvalidType)
}
