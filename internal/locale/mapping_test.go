package locale

import (
	"strings"
	"testing"
)

func testMapping(t *testing.T) *Mapping {
	t.Helper()

	m, err := NewMapping(map[string]string{
		"fr":     "fr-FR",
		"de":     "de-DE",
		"pt-BR":  "pt-BR",
		"es_419": "es-LA",
	})
	if err != nil {
		t.Fatalf("new mapping: %v", err)
	}
	return m
}

func TestMappingRoundTripIsLossless(t *testing.T) {
	t.Parallel()

	m := testMapping(t)
	for _, zd := range m.ZendeskLocales() {
		sl, err := m.Smartling(zd)
		if err != nil {
			t.Fatalf("smartling locale for %q: %v", zd, err)
		}
		back, err := m.Zendesk(sl)
		if err != nil {
			t.Fatalf("zendesk locale for %q: %v", sl, err)
		}
		if back != zd {
			t.Fatalf("round trip mismatch: %q -> %q -> %q", zd, sl, back)
		}
	}
}

func TestMappingLookupsAreCaseInsensitive(t *testing.T) {
	t.Parallel()

	m := testMapping(t)
	if sl, err := m.Smartling(" FR "); err != nil || sl != "fr-FR" {
		t.Fatalf("unexpected smartling lookup: %q, %v", sl, err)
	}
	if zd, err := m.Zendesk("pt-br"); err != nil || zd != "pt-br" {
		t.Fatalf("unexpected zendesk lookup: %q, %v", zd, err)
	}
	if zd, err := m.Zendesk("es-LA"); err != nil || zd != "es-419" {
		t.Fatalf("unexpected zendesk lookup for numeric region: %q, %v", zd, err)
	}
	if _, err := m.Smartling("ja"); err == nil {
		t.Fatalf("expected unknown zendesk locale to fail")
	}
	if _, err := m.Zendesk("ja-JP"); err == nil {
		t.Fatalf("expected unknown smartling locale to fail")
	}
}

func TestNewMappingRejectsAmbiguousReverseLookup(t *testing.T) {
	t.Parallel()

	_, err := NewMapping(map[string]string{"fr": "fr-FR", "fr-ca": "FR-fr"})
	if err == nil {
		t.Fatalf("expected duplicate smartling locale to be rejected")
	}
	if !strings.Contains(err.Error(), "mapped from both") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseList(t *testing.T) {
	t.Parallel()

	m := testMapping(t)

	all, err := m.ParseList("all")
	if err != nil {
		t.Fatalf("parse all: %v", err)
	}
	if strings.Join(all, ",") != "de,es-419,fr,pt-br" {
		t.Fatalf("unexpected all locales: %v", all)
	}

	some, err := m.ParseList("fr, de,fr")
	if err != nil {
		t.Fatalf("parse list: %v", err)
	}
	if strings.Join(some, ",") != "fr,de" {
		t.Fatalf("unexpected locales: %v", some)
	}

	if _, err := m.ParseList("fr,xx"); err == nil {
		t.Fatalf("expected unconfigured locale to fail")
	}
	if _, err := m.ParseList(" , "); err == nil {
		t.Fatalf("expected empty list to fail")
	}
}

func TestNormalizeTag(t *testing.T) {
	t.Parallel()

	if got := NormalizeTag(" EN_us "); got != "en-us" {
		t.Fatalf("unexpected normalized tag: %q", got)
	}
	if got := NormalizeTag("en--US"); got != "en-us" {
		t.Fatalf("unexpected collapsed tag: %q", got)
	}
	if got := NormalizeTag("en_$"); got != "" {
		t.Fatalf("expected invalid tag to normalize to empty string, got %q", got)
	}
	if got := PrimaryCode("pt-BR"); got != "pt" {
		t.Fatalf("unexpected primary code: %q", got)
	}
}
