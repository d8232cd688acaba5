// Package i18n provides the embedded translation catalogs for user-facing
// strings, keyed by config/service/field names.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed locales/*.json
var localesFS embed.FS

// DefaultLocale is used when a key is missing from the requested locale.
const DefaultLocale = "en"

// Catalog holds the flattened translation tables for all shipped locales.
type Catalog struct {
	locales map[string]map[string]string
}

// Load reads and flattens every embedded locale file.
func Load() (*Catalog, error) {
	catalog := &Catalog{locales: make(map[string]map[string]string)}

	err := fs.WalkDir(localesFS, "locales", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}

		content, err := localesFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		var nested map[string]any
		if err := json.Unmarshal(content, &nested); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}

		locale := strings.TrimSuffix(strings.TrimPrefix(path, "locales/"), ".json")
		flat := make(map[string]string)
		flatten("", nested, flat)
		catalog.locales[locale] = flat
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, ok := catalog.locales[DefaultLocale]; !ok {
		return nil, fmt.Errorf("default locale %q missing", DefaultLocale)
	}
	return catalog, nil
}

// Locales returns the shipped locale codes, sorted.
func (c *Catalog) Locales() []string {
	out := make([]string, 0, len(c.locales))
	for locale := range c.locales {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

// Translate looks up a dotted key (e.g. "config.error.cannot_connect") in
// the requested locale, falling back to the default locale and finally to
// the key itself.
func (c *Catalog) Translate(locale, key string) string {
	if table, ok := c.locales[locale]; ok {
		if s, ok := table[key]; ok {
			return s
		}
	}
	if s, ok := c.locales[DefaultLocale][key]; ok {
		return s
	}
	return key
}

// Table returns the full flattened table for a locale, falling back to
// the default locale for unknown codes.
func (c *Catalog) Table(locale string) map[string]string {
	if table, ok := c.locales[locale]; ok {
		return table
	}
	return c.locales[DefaultLocale]
}

func flatten(prefix string, nested map[string]any, out map[string]string) {
	for key, value := range nested {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case string:
			out[full] = v
		case map[string]any:
			flatten(full, v, out)
		}
	}
}
