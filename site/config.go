// Package site holds the studio's site-level configuration: contact and
// social links, the header menu used when the store has none, the commerce
// endpoint and newsletter defaults.
package site

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Social lists the studio's contact and social profile links.
type Social struct {
	Email     string `yaml:"email" json:"email"`
	Instagram string `yaml:"instagram" json:"instagram"`
	YouTube   string `yaml:"youtube" json:"youtube"`
	X         string `yaml:"x" json:"x"`
	TikTok    string `yaml:"tiktok" json:"tiktok"`
}

// MenuItem is one header navigation entry.
type MenuItem struct {
	ID    string     `yaml:"id,omitempty" json:"id,omitempty"`
	Title string     `yaml:"title" json:"title"`
	Type  string     `yaml:"type,omitempty" json:"type,omitempty"`
	URL   string     `yaml:"url" json:"url"`
	Items []MenuItem `yaml:"items,omitempty" json:"items,omitempty"`
}

// Commerce names the store. Access tokens come from the environment, never
// from this file.
type Commerce struct {
	StoreDomain   string `yaml:"store_domain" json:"storeDomain"`
	PrimaryDomain string `yaml:"primary_domain" json:"primaryDomain,omitempty"`
	APIVersion    string `yaml:"api_version" json:"apiVersion"`
}

// Newsletter configures signup defaults.
type Newsletter struct {
	DefaultTag string `yaml:"default_tag" json:"defaultTag"`
}

// Config is the whole site configuration.
type Config struct {
	Name       string     `yaml:"name" json:"name"`
	Social     Social     `yaml:"social" json:"social"`
	Menu       []MenuItem `yaml:"menu" json:"menu"`
	Commerce   Commerce   `yaml:"commerce" json:"commerce"`
	Newsletter Newsletter `yaml:"newsletter" json:"newsletter"`
}

// Default returns the studio's configuration. Its Menu is empty so that the
// fallback menu is used until a store menu is configured.
func Default() Config {
	return Config{
		Name: "mcliv studio",
		Social: Social{
			Email:     "mailto:info@mcliv.studio",
			Instagram: "https://www.instagram.com/mcliv_studio",
			YouTube:   "https://www.youtube.com/@mcliv.studio",
			X:         "https://x.com/mcliv_studio",
			TikTok:    "https://www.tiktok.com/@mcliv.studio",
		},
		Commerce:   Commerce{APIVersion: "2025-07"},
		Newsletter: Newsletter{DefaultTag: "newsletter"},
	}
}

// FallbackMenu is shown when no header menu is configured.
func FallbackMenu() []MenuItem {
	return []MenuItem{
		{ID: "gid://shopify/MenuItem/461609500728", Title: "Collections", Type: "HTTP", URL: "/collections"},
		{ID: "gid://shopify/MenuItem/461609533496", Title: "Blog", Type: "HTTP", URL: "/blogs/journal"},
		{ID: "gid://shopify/MenuItem/461609566264", Title: "Policies", Type: "HTTP", URL: "/policies"},
		{ID: "gid://shopify/MenuItem/461609599032", Title: "About", Type: "PAGE", URL: "/pages/about"},
	}
}

// Load reads a YAML file over Default. Keys absent from the file keep their
// default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading site config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing site config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that menu entries are titled.
func (c Config) Validate() error {
	var errs []error
	var walk func(prefix string, items []MenuItem)
	walk = func(prefix string, items []MenuItem) {
		for i, it := range items {
			if strings.TrimSpace(it.Title) == "" {
				errs = append(errs, fmt.Errorf("menu%s[%d]: title is required", prefix, i))
			}
			walk(fmt.Sprintf("%s[%d].items", prefix, i), it.Items)
		}
	}
	walk("", c.Menu)
	return errors.Join(errs...)
}

// HeaderMenu returns the navigable header entries: the configured menu or the
// fallback, without entries lacking a URL, and with links into the store's
// own domains reduced to their path.
func (c Config) HeaderMenu() []MenuItem {
	items := c.Menu
	if len(items) == 0 {
		items = FallbackMenu()
	}
	out := make([]MenuItem, 0, len(items))
	for _, it := range items {
		if it.URL == "" {
			continue
		}
		it.URL = c.localise(it.URL)
		out = append(out, it)
	}
	return out
}

func (c Config) localise(raw string) string {
	internal := strings.Contains(raw, "myshopify.com") ||
		(c.Commerce.StoreDomain != "" && strings.Contains(raw, c.Commerce.StoreDomain)) ||
		(c.Commerce.PrimaryDomain != "" && strings.Contains(raw, c.Commerce.PrimaryDomain))
	if !internal {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	if u.Path == "" {
		return "/"
	}
	return u.Path
}
