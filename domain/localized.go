package domain

import (
	"encoding/json"
	"sort"
	"strings"
)

// LocalizedText is the parsed form of a stored title or description. Old rows
// hold plain strings, newer rows hold JSON-encoded per-locale objects like
// {"en":"Welcome","sv":"Välkommen"}. Exactly one of Plain and Values is set.
type LocalizedText struct {
	Plain  string
	Values map[string]string
}

// ParseLocalized interprets a stored value. Anything that is not a valid
// non-empty JSON object of strings is treated as plain text.
func ParseLocalized(raw string) LocalizedText {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		var values map[string]string
		if err := json.Unmarshal([]byte(trimmed), &values); err == nil && len(values) > 0 {
			return LocalizedText{Values: values}
		}
	}
	return LocalizedText{Plain: raw}
}

func (l LocalizedText) IsLocalized() bool {
	return l.Values != nil
}

// Resolve picks the preferred locale, then the fallback, then the first
// non-empty value in lexical key order.
func (l LocalizedText) Resolve(preferred, fallback string) string {
	if l.Values == nil {
		return l.Plain
	}
	if v := l.Values[preferred]; v != "" {
		return v
	}
	if v := l.Values[fallback]; v != "" {
		return v
	}
	keys := make([]string, 0, len(l.Values))
	for k := range l.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if l.Values[k] != "" {
			return l.Values[k]
		}
	}
	return ""
}

// Localize is the single resolution path for localized fields; call sites must
// not duplicate the parse-then-fallback logic.
func Localize(raw, preferred, fallback string) string {
	return ParseLocalized(raw).Resolve(preferred, fallback)
}
