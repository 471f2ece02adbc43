// Package i18n provides localized message lookup for the console.
//
// Messages are addressed by dotted keys ("crawlingStatus.processing") and
// resolved against the catalog for the current language, falling back to
// English and finally to the key itself. Templates interpolate {name}
// placeholders from a variable map.
package i18n

import (
	"fmt"
	"strings"
	"sync"
)

// Lang identifies a UI language.
type Lang string

const (
	Korean   Lang = "ko"
	English  Lang = "en"
	Japanese Lang = "ja"
)

// ParseLang normalizes a language tag, defaulting to Korean.
func ParseLang(s string) Lang {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "en", "en-us", "en-gb":
		return English
	case "ja", "jp":
		return Japanese
	default:
		return Korean
	}
}

// Vars carries template variables for interpolation.
type Vars map[string]any

// Translator resolves localized messages for one language at a time.
type Translator struct {
	mu   sync.RWMutex
	lang Lang
}

// New creates a Translator for the given language.
func New(lang Lang) *Translator {
	return &Translator{lang: lang}
}

// Language returns the current language.
func (tr *Translator) Language() Lang {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.lang
}

// SetLanguage switches the current language.
func (tr *Translator) SetLanguage(lang Lang) {
	tr.mu.Lock()
	tr.lang = lang
	tr.mu.Unlock()
}

// T resolves key against the current catalog and interpolates vars.
// The fallback chain is current language, then English, then the key itself.
func (tr *Translator) T(key string, vars Vars) string {
	tr.mu.RLock()
	lang := tr.lang
	tr.mu.RUnlock()

	msg, ok := lookup(catalogs[lang], key)
	if !ok && lang != English {
		msg, ok = lookup(catalogs[English], key)
	}
	if !ok {
		return key
	}
	return interpolate(msg, vars)
}

// lookup walks a nested catalog by dotted key.
func lookup(catalog map[string]any, key string) (string, bool) {
	if catalog == nil {
		return "", false
	}
	node := any(catalog)
	for _, part := range strings.Split(key, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return "", false
		}
		node, ok = m[part]
		if !ok {
			return "", false
		}
	}
	s, ok := node.(string)
	return s, ok
}

// interpolate substitutes {name} placeholders. Unknown placeholders are
// left in place so missing variables are visible rather than silent.
func interpolate(template string, vars Vars) string {
	if len(vars) == 0 || !strings.Contains(template, "{") {
		return template
	}
	var b strings.Builder
	b.Grow(len(template))
	for {
		open := strings.IndexByte(template, '{')
		if open < 0 {
			b.WriteString(template)
			return b.String()
		}
		closing := strings.IndexByte(template[open:], '}')
		if closing < 0 {
			b.WriteString(template)
			return b.String()
		}
		name := template[open+1 : open+closing]
		b.WriteString(template[:open])
		if v, ok := vars[name]; ok {
			b.WriteString(stringify(v))
		} else {
			b.WriteString(template[open : open+closing+1])
		}
		template = template[open+closing+1:]
	}
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
