package transfer

import (
	"fmt"
	"strconv"
	"strings"

	"horse.fit/smartlingzd/internal/zendesk"
)

// Selection picks the items of one type: every item, or explicit IDs.
// The zero Selection selects nothing.
type Selection struct {
	All bool
	IDs []int64
}

// ParseSelection parses a flag value: "all" or comma-separated positive IDs.
// Duplicate IDs are dropped and the first-seen order kept.
func ParseSelection(raw string) (Selection, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Selection{}, nil
	}
	if strings.EqualFold(trimmed, "all") {
		return Selection{All: true}, nil
	}

	parts := strings.Split(trimmed, ",")
	ids := make([]int64, 0, len(parts))
	seen := make(map[int64]struct{}, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value == "" {
			continue
		}
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil || id <= 0 {
			return Selection{}, fmt.Errorf("invalid id %q: must be a positive integer or \"all\"", value)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return Selection{}, fmt.Errorf("no ids given")
	}
	return Selection{IDs: ids}, nil
}

func (s Selection) Empty() bool {
	return !s.All && len(s.IDs) == 0
}

func (s Selection) String() string {
	if s.All {
		return "all"
	}
	parts := make([]string, 0, len(s.IDs))
	for _, id := range s.IDs {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}

// Request describes one run over the three item types.
type Request struct {
	Categories Selection
	Sections   Selection
	Articles   Selection

	// Locales are Zendesk locale codes; required for pull, status and import.
	Locales []string
	// RetrievalType applies to explicit-ID pulls; "all" pulls always use published.
	RetrievalType string
}

func (r Request) Selection(itemType zendesk.ItemType) Selection {
	switch itemType {
	case zendesk.TypeCategory:
		return r.Categories
	case zendesk.TypeSection:
		return r.Sections
	case zendesk.TypeArticle:
		return r.Articles
	default:
		return Selection{}
	}
}

func (r Request) Empty() bool {
	return r.Categories.Empty() && r.Sections.Empty() && r.Articles.Empty()
}

// SourceFileName is the Smartling file URI of an item: "<type>_<id>.json".
func SourceFileName(itemType zendesk.ItemType, id int64) string {
	return fmt.Sprintf("%s_%d.json", itemType, id)
}

// TranslationFileName names a downloaded translation: "<type>_<id>_<smartling-locale>.json".
func TranslationFileName(itemType zendesk.ItemType, id int64, smartlingLocale string) string {
	return fmt.Sprintf("%s_%d_%s.json", itemType, id, smartlingLocale)
}

// parseFileURI extracts the item ID from a "<type>_<id>.json" URI.
func parseFileURI(itemType zendesk.ItemType, uri string) (int64, bool) {
	prefix := string(itemType) + "_"
	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, ".json") {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(uri, prefix), ".json"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
