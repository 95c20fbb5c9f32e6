// Package localization holds the translated strings of the site's emails and
// alerts, one JSON catalogue per language.
package localization

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
)

// DefaultLanguage is used when a key is missing in the requested language.
const DefaultLanguage = "en"

//go:embed locales/*.json
var locales embed.FS

// catalogue maps message keys to translated text.
type catalogue map[string]string

// Localizer looks messages up by language. It is read-only after loading and
// safe for concurrent use.
type Localizer struct {
	catalogues map[string]catalogue
}

// NewLocalizer loads every "<lang>.json" at the root of fsys.
func NewLocalizer(fsys fs.FS) (*Localizer, error) {
	names, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return nil, fmt.Errorf("list catalogues: %w", err)
	}

	l := &Localizer{catalogues: make(map[string]catalogue, len(names))}
	for _, name := range names {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read catalogue %s: %w", name, err)
		}
		var c catalogue
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("parse catalogue %s: %w", name, err)
		}
		l.catalogues[strings.TrimSuffix(name, path.Ext(name))] = c
	}
	return l, nil
}

// Default returns a Localizer over the catalogues compiled into the binary.
func Default() (*Localizer, error) {
	sub, err := fs.Sub(locales, "locales")
	if err != nil {
		return nil, err
	}
	return NewLocalizer(sub)
}

// Languages lists the loaded language codes in sorted order.
func (l *Localizer) Languages() []string {
	langs := make([]string, 0, len(l.catalogues))
	for lang := range l.catalogues {
		langs = append(langs, lang)
	}
	slices.Sort(langs)
	return langs
}

// GetString returns the text of key in lang, then in DefaultLanguage, then key itself.
func (l *Localizer) GetString(lang, key string) string {
	for _, candidate := range []string{lang, DefaultLanguage} {
		if text, ok := l.catalogues[candidate][key]; ok {
			return text
		}
	}
	return key
}

// Sprintf formats the text of key with args.
func (l *Localizer) Sprintf(lang, key string, args ...any) string {
	return fmt.Sprintf(l.GetString(lang, key), args...)
}
