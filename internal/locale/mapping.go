package locale

import (
	"fmt"
	"sort"
	"strings"
)

// ZendeskSource is the Help Center locale that source content is authored in.
const ZendeskSource = "en-us"

// All selects every configured locale on the command line.
const All = "all"

// Mapping translates Zendesk locale codes to Smartling locale codes and back.
type Mapping struct {
	toSmartling map[string]string
	toZendesk   map[string]string
}

// NewMapping builds a mapping from Zendesk locale to Smartling locale pairs.
// Two Zendesk locales must not share one Smartling locale, otherwise the reverse
// lookup would be ambiguous.
func NewMapping(pairs map[string]string) (*Mapping, error) {
	m := &Mapping{
		toSmartling: make(map[string]string, len(pairs)),
		toZendesk:   make(map[string]string, len(pairs)),
	}
	for zd, sl := range pairs {
		zdTag := NormalizeTag(zd)
		if zdTag == "" {
			return nil, fmt.Errorf("invalid zendesk locale %q", zd)
		}
		slTag := strings.TrimSpace(sl)
		if slTag == "" {
			return nil, fmt.Errorf("zendesk locale %q maps to an empty smartling locale", zd)
		}
		if prev, exists := m.toZendesk[strings.ToLower(slTag)]; exists && prev != zdTag {
			return nil, fmt.Errorf("smartling locale %q is mapped from both %q and %q", slTag, prev, zdTag)
		}
		m.toSmartling[zdTag] = slTag
		m.toZendesk[strings.ToLower(slTag)] = zdTag
	}
	return m, nil
}

// Smartling returns the Smartling locale for a Zendesk locale.
func (m *Mapping) Smartling(zendeskLocale string) (string, error) {
	if m == nil {
		return "", fmt.Errorf("locale mapping is nil")
	}
	sl, ok := m.toSmartling[NormalizeTag(zendeskLocale)]
	if !ok {
		return "", fmt.Errorf("invalid zendesk locale: %s", zendeskLocale)
	}
	return sl, nil
}

// Zendesk returns the Zendesk locale for a Smartling locale.
func (m *Mapping) Zendesk(smartlingLocale string) (string, error) {
	if m == nil {
		return "", fmt.Errorf("locale mapping is nil")
	}
	zd, ok := m.toZendesk[strings.ToLower(strings.TrimSpace(smartlingLocale))]
	if !ok {
		return "", fmt.Errorf("invalid smartling locale: %s", smartlingLocale)
	}
	return zd, nil
}

// ZendeskLocales lists the configured Zendesk locales in sorted order.
func (m *Mapping) ZendeskLocales() []string {
	if m == nil {
		return nil
	}
	locales := make([]string, 0, len(m.toSmartling))
	for zd := range m.toSmartling {
		locales = append(locales, zd)
	}
	sort.Strings(locales)
	return locales
}

// ParseList resolves a "--locales" value: "all" or a comma-separated list of
// configured Zendesk locales. Duplicates are dropped, order is kept.
func (m *Mapping) ParseList(raw string) ([]string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("no locales given")
	}
	if strings.EqualFold(trimmed, All) {
		return m.ZendeskLocales(), nil
	}

	parts := strings.Split(trimmed, ",")
	locales := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		tag := NormalizeTag(part)
		if tag == "" {
			continue
		}
		if _, ok := m.toSmartling[tag]; !ok {
			return nil, fmt.Errorf("locale %q is not configured (valid locales: %s)", strings.TrimSpace(part), strings.Join(m.ZendeskLocales(), ","))
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		locales = append(locales, tag)
	}
	if len(locales) == 0 {
		return nil, fmt.Errorf("no locales given")
	}
	return locales, nil
}

// NormalizeTag normalizes a locale tag to lowercase and "-" separators.
// Returns an empty string when the value is blank or contains invalid characters.
func NormalizeTag(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return ""
	}

	trimmed = strings.ReplaceAll(trimmed, "_", "-")
	parts := strings.Split(trimmed, "-")
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !isAlnumLower(part) {
			return ""
		}
		normalized = append(normalized, part)
	}

	if len(normalized) == 0 {
		return ""
	}
	return strings.Join(normalized, "-")
}

// PrimaryCode returns the primary language subtag (for example, "pt" from "pt-br").
func PrimaryCode(raw string) string {
	tag := NormalizeTag(raw)
	if dash := strings.IndexByte(tag, '-'); dash >= 0 {
		return tag[:dash]
	}
	return tag
}

// region subtags such as "419" in "es-419" are numeric
func isAlnumLower(value string) bool {
	for _, r := range value {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
