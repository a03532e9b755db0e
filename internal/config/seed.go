package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/JakeFAU/catalog-ingest/internal/catalog"
)

// LoadBrandSeeds reads the brand seed file. A missing file yields no seeds.
func LoadBrandSeeds(path string) ([]catalog.BrandSeed, error) {
	var seeds []catalog.BrandSeed
	found, err := readJSONArray(path, &seeds)
	if err != nil || !found {
		return nil, err
	}
	for i, s := range seeds {
		if strings.TrimSpace(s.Name) == "" {
			return nil, fmt.Errorf("brand seed %d: name must be set", i)
		}
		if s.Status == "" {
			seeds[i].Status = catalog.BrandActive
		}
		if st := seeds[i].Status; st != catalog.BrandActive && st != catalog.BrandDraft {
			return nil, fmt.Errorf("brand seed %q: unknown status %q", s.Name, st)
		}
	}
	return seeds, nil
}

// LoadBrandAliases reads the alias file. A missing file yields no aliases.
func LoadBrandAliases(path string) ([]catalog.AliasEntry, error) {
	var aliases []catalog.AliasEntry
	found, err := readJSONArray(path, &aliases)
	if err != nil || !found {
		return nil, err
	}
	for i, a := range aliases {
		if strings.TrimSpace(a.Brand) == "" || strings.TrimSpace(a.Alias) == "" {
			return nil, fmt.Errorf("brand alias %d: brand and alias must be set", i)
		}
		if a.Priority == 0 {
			aliases[i].Priority = 1
		}
	}
	return aliases, nil
}

func readJSONArray(path string, dst any) (bool, error) {
	if strings.TrimSpace(path) == "" {
		return false, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}
