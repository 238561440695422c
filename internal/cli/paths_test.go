package cli

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/pixelshare/pkg/buildinfo"
)

func TestCacheDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	t.Run("default", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", "")
		dir, err := cacheDir()
		if err != nil {
			t.Fatalf("cacheDir() error: %v", err)
		}
		if want := filepath.Join(home, ".cache", appName); dir != want {
			t.Errorf("cacheDir() = %q, want %q", dir, want)
		}
	})

	t.Run("xdg", func(t *testing.T) {
		custom := filepath.Join(home, "xdg")
		t.Setenv("XDG_CACHE_HOME", custom)
		dir, err := cacheDir()
		if err != nil {
			t.Fatalf("cacheDir() error: %v", err)
		}
		if want := filepath.Join(custom, appName); dir != want {
			t.Errorf("cacheDir() = %q, want %q", dir, want)
		}
	})
}

func TestDefaultPreviewPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "cat.json")
	writeFile(t, file, `{}`)

	tests := []struct {
		input, format, want string
	}{
		{file, "png", filepath.Join(dir, "cat.png")},
		{"H4sIAAAAAAAA", "svg", "drawing.svg"},
		{"https://example.com/?drawing=abc", "pdf", "drawing.pdf"},
	}
	for _, tt := range tests {
		if got := defaultPreviewPath(tt.input, tt.format); got != tt.want {
			t.Errorf("defaultPreviewPath(%q, %q) = %q, want %q", tt.input, tt.format, got, tt.want)
		}
	}
}

func TestCacheKeyerScopesByVersion(t *testing.T) {
	key := cacheKeyer().TokenKey("abc")
	if !strings.HasPrefix(key, buildinfo.Version+":") {
		t.Errorf("cacheKeyer().TokenKey() = %q, want %q prefix", key, buildinfo.Version+":")
	}
}
