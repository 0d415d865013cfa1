// Package i18n resolves reply texts by key and locale.
//
// Catalogs are flat YAML maps embedded from locales/. Values are fmt
// templates; arguments are applied only when given.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DefaultLocale is the catalog every lookup falls back to.
const DefaultLocale = "en"

//go:embed locales/*.yaml
var localesFS embed.FS

// Translator looks up texts in the embedded catalogs.
type Translator struct {
	catalogs map[string]map[string]string
	locales  []string
	matcher  language.Matcher
	fallback string
}

// New loads all embedded catalogs. defaultLocale is used when a user's
// language code matches none of them; an unknown or empty value means en.
func New(defaultLocale string) (*Translator, error) {
	entries, err := localesFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read locales: %w", err)
	}

	catalogs := make(map[string]map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yaml" {
			continue
		}
		data, err := localesFS.ReadFile(path.Join("locales", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		catalog := make(map[string]string)
		if err := yaml.Unmarshal(data, &catalog); err != nil {
			return nil, fmt.Errorf("parse %s: %w", entry.Name(), err)
		}
		catalogs[strings.TrimSuffix(entry.Name(), ".yaml")] = catalog
	}
	if _, ok := catalogs[DefaultLocale]; !ok {
		return nil, fmt.Errorf("missing %s catalog", DefaultLocale)
	}

	fallback := strings.ToLower(strings.TrimSpace(defaultLocale))
	if _, ok := catalogs[fallback]; !ok {
		fallback = DefaultLocale
	}

	// the matcher returns the first tag when nothing matches
	locales := []string{fallback}
	for name := range catalogs {
		if name != fallback {
			locales = append(locales, name)
		}
	}
	sort.Strings(locales[1:])

	tags := make([]language.Tag, 0, len(locales))
	for _, name := range locales {
		tags = append(tags, language.Make(name))
	}

	return &Translator{
		catalogs: catalogs,
		locales:  locales,
		matcher:  language.NewMatcher(tags),
		fallback: fallback,
	}, nil
}

// MustNew is New for wiring code that cannot continue without texts.
func MustNew(defaultLocale string) *Translator {
	t, err := New(defaultLocale)
	if err != nil {
		panic(err)
	}
	return t
}

// Locale maps a Telegram language code (e.g. "ru", "en-US", "pt-br") to a
// loaded catalog name.
func (t *Translator) Locale(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return t.fallback
	}
	tag, err := language.Parse(code)
	if err != nil {
		return t.fallback
	}
	_, index, confidence := t.matcher.Match(tag)
	if confidence == language.No {
		return t.fallback
	}
	return t.locales[index]
}

// Locales lists loaded catalog names, the fallback first.
func (t *Translator) Locales() []string {
	out := make([]string, len(t.locales))
	copy(out, t.locales)
	return out
}

// T returns the text for key in locale, falling back to English and then
// to the key itself.
func (t *Translator) T(locale, key string, args ...interface{}) string {
	text, ok := t.lookup(locale, key)
	if !ok {
		return key
	}
	if len(args) == 0 {
		return text
	}
	return fmt.Sprintf(text, args...)
}

// Has reports whether key exists in locale without falling back.
func (t *Translator) Has(locale, key string) bool {
	catalog, ok := t.catalogs[locale]
	if !ok {
		return false
	}
	_, ok = catalog[key]
	return ok
}

func (t *Translator) lookup(locale, key string) (string, bool) {
	if catalog, ok := t.catalogs[locale]; ok {
		if text, ok := catalog[key]; ok {
			return text, true
		}
	}
	if catalog, ok := t.catalogs[t.fallback]; ok {
		if text, ok := catalog[key]; ok {
			return text, true
		}
	}
	text, ok := t.catalogs[DefaultLocale][key]
	return text, ok
}
