package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/JakeFAU/catalog-ingest/internal/catalog"
)

// LoadSite reads a site definition (JSON by default; YAML also works by extension).
func LoadSite(path string) (catalog.SiteConfig, error) {
	if strings.TrimSpace(path) == "" {
		return catalog.SiteConfig{}, errors.New("site config path is required")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("json")
	}
	if err := v.ReadInConfig(); err != nil {
		return catalog.SiteConfig{}, fmt.Errorf("read site config: %w", err)
	}

	var site catalog.SiteConfig
	if err := v.Unmarshal(&site); err != nil {
		return catalog.SiteConfig{}, fmt.Errorf("unmarshal site config: %w", err)
	}
	if err := ValidateSite(site); err != nil {
		return catalog.SiteConfig{}, fmt.Errorf("site config %s: %w", path, err)
	}
	return site, nil
}

// ValidateSite checks the fields the pipeline cannot run without.
func ValidateSite(site catalog.SiteConfig) error {
	if strings.TrimSpace(site.Source) == "" {
		return errors.New("source must be set")
	}
	if len(site.Listing.StartURLs) == 0 {
		return errors.New("listing.start_urls must not be empty")
	}
	if strings.TrimSpace(site.Listing.ProductLinkSelector) == "" {
		return errors.New("listing.product_link_selector must be set")
	}
	if site.Listing.MaxPages < 0 {
		return errors.New("listing.max_pages must be >= 0")
	}
	switch site.EffectiveMode() {
	case catalog.ModeHTML, catalog.ModeJSON:
	default:
		return fmt.Errorf("mode must be %q or %q, got %q", catalog.ModeHTML, catalog.ModeJSON, site.Mode)
	}
	if t := site.Routing.ConfidenceThreshold; t < 0 || t > 1 {
		return fmt.Errorf("routing.confidence_threshold must be within [0,1], got %v", t)
	}
	return nil
}
