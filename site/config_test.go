package site

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCarriesStudioLinks(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "mailto:info@mcliv.studio", cfg.Social.Email)
	assert.Equal(t, "https://x.com/mcliv_studio", cfg.Social.X)
	assert.Equal(t, "newsletter", cfg.Newsletter.DefaultTag)
	assert.Empty(t, cfg.Menu)
	assert.NoError(t, cfg.Validate())
}

func TestParseOverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
social:
  instagram: https://www.instagram.com/other
commerce:
  store_domain: mcliv.myshopify.com
menu:
  - title: Shop
    url: https://mcliv.myshopify.com/collections/all
  - title: Press
    url: https://press.example/mcliv
`))
	require.NoError(t, err)
	assert.Equal(t, "https://www.instagram.com/other", cfg.Social.Instagram)
	assert.Equal(t, "mailto:info@mcliv.studio", cfg.Social.Email)
	assert.Equal(t, "2025-07", cfg.Commerce.APIVersion)
	assert.Equal(t, "mcliv.myshopify.com", cfg.Commerce.StoreDomain)

	want := []MenuItem{
		{Title: "Shop", URL: "/collections/all"},
		{Title: "Press", URL: "https://press.example/mcliv"},
	}
	if diff := cmp.Diff(want, cfg.HeaderMenu()); diff != "" {
		t.Errorf("header menu (-want +got):\n%s", diff)
	}
}

func TestHeaderMenuFallsBackAndSkipsEmptyURLs(t *testing.T) {
	cfg := Default()
	menu := cfg.HeaderMenu()
	require.Len(t, menu, 4)
	assert.Equal(t, "Collections", menu[0].Title)
	assert.Equal(t, "/pages/about", menu[3].URL)
	assert.Equal(t, "PAGE", menu[3].Type)

	cfg.Commerce.PrimaryDomain = "mcliv.studio"
	cfg.Menu = []MenuItem{
		{Title: "Nowhere"},
		{Title: "Home", URL: "https://mcliv.studio"},
		{Title: "Journal", URL: "https://mcliv.studio/blogs/journal"},
	}
	assert.Equal(t, []MenuItem{
		{Title: "Home", URL: "/"},
		{Title: "Journal", URL: "/blogs/journal"},
	}, cfg.HeaderMenu())
}

func TestParseRejectsInvalid(t *testing.T) {
	_, err := Parse([]byte("menu:\n  - url: /x\n    items:\n      - url: /y\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "menu[0]: title is required")
	assert.Contains(t, err.Error(), "menu[0].items[0]: title is required")

	_, err = Parse([]byte("social: [not, a, map]"))
	assert.Error(t, err)
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestStoreWatchReloadsAndKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	writeFile(t, path, "name: first\n")

	s, err := NewStore(path, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, "first", s.Config().Name)

	changed := make(chan Config, 4)
	s.OnChange(func(c Config) {
		select {
		case changed <- c:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()

	// Give the watcher time to register before writing.
	require.Eventually(t, func() bool {
		writeFile(t, path, "name: second\n")
		select {
		case c := <-changed:
			return c.Name == "second"
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, "second", s.Config().Name)

	writeFile(t, path, "menu: {broken")
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, "second", s.Config().Name)

	cancel()
	require.NoError(t, <-done)
}

func TestReloadRunsHooksInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	writeFile(t, path, "name: first\n")

	s, err := NewStore(path)
	require.NoError(t, err)

	var got []string
	s.OnChange(func(c Config) { got = append(got, "a:"+c.Name) })
	s.OnChange(func(c Config) { got = append(got, "b:"+c.Name) })

	writeFile(t, path, "name: second\n")
	require.NoError(t, s.Reload())
	assert.Equal(t, []string{"a:second", "b:second"}, got)
	assert.Equal(t, "second", s.Config().Name)

	writeFile(t, path, "menu: {broken")
	assert.Error(t, s.Reload())
	assert.Len(t, got, 2)
	assert.Equal(t, "second", s.Config().Name)
}

func TestNewStoreWithoutPathUsesDefault(t *testing.T) {
	s, err := NewStore("")
	require.NoError(t, err)
	assert.Equal(t, Default(), s.Config())
	assert.NoError(t, s.Reload())

	_, err = NewStore(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
