// Package i18n serves the widget's UI strings from embedded dictionaries.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
)

const DefaultLanguage = "en"

//go:embed locales/*.json
var localeFS embed.FS

type Translator struct {
	dicts map[string]map[string]interface{}
}

// New loads every embedded dictionary.
func New() (*Translator, error) {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, err
	}

	t := &Translator{dicts: make(map[string]map[string]interface{})}
	for _, e := range entries {
		data, err := localeFS.ReadFile(path.Join("locales", e.Name()))
		if err != nil {
			return nil, err
		}
		var dict map[string]interface{}
		if err := json.Unmarshal(data, &dict); err != nil {
			return nil, fmt.Errorf("parsing locale %s: %w", e.Name(), err)
		}
		t.dicts[strings.TrimSuffix(e.Name(), ".json")] = dict
	}

	if _, ok := t.dicts[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("default locale %q missing", DefaultLanguage)
	}
	return t, nil
}

// MustNew is New for package-level initialisation of embedded data.
func MustNew() *Translator {
	t, err := New()
	if err != nil {
		panic(err)
	}
	return t
}

// Languages lists the available language codes.
func (t *Translator) Languages() []string {
	langs := make([]string, 0, len(t.dicts))
	for l := range t.dicts {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

func (t *Translator) Supports(lang string) bool {
	_, ok := t.dicts[lang]
	return ok
}

// T looks up a dotted key such as "chat.welcome". An unknown language uses
// the default dictionary; a key that does not resolve to a string is returned as is.
func (t *Translator) T(lang, key string) string {
	dict, ok := t.dicts[lang]
	if !ok {
		dict = t.dicts[DefaultLanguage]
	}

	var node interface{} = dict
	for _, part := range strings.Split(key, ".") {
		m, ok := node.(map[string]interface{})
		if !ok {
			return key
		}
		node = m[part]
	}

	if s, ok := node.(string); ok {
		return s
	}
	return key
}
