package zendesk

import "encoding/json"

// ItemType is a kind of Help Center content.
type ItemType string

const (
	TypeCategory ItemType = "category"
	TypeSection  ItemType = "section"
	TypeArticle  ItemType = "article"
)

// ItemTypes is the order in which item types are processed.
var ItemTypes = []ItemType{TypeCategory, TypeSection, TypeArticle}

// Plural is the collection name used in URLs and list responses.
func (t ItemType) Plural() string {
	switch t {
	case TypeCategory:
		return "categories"
	default:
		return string(t) + "s"
	}
}

// TranslatedFields are the fields sent for translation and read back from it.
func (t ItemType) TranslatedFields() []string {
	if t == TypeArticle {
		return []string{"body", "title"}
	}
	return []string{"name", "description"}
}

func (t ItemType) Valid() bool {
	switch t {
	case TypeCategory, TypeSection, TypeArticle:
		return true
	default:
		return false
	}
}

// Item is one article, section or category. Raw keeps the object exactly as
// Zendesk returned it.
type Item struct {
	ID    int64
	Draft bool
	Raw   json.RawMessage
}

func (i *Item) UnmarshalJSON(data []byte) error {
	var head struct {
		ID    int64 `json:"id"`
		Draft bool  `json:"draft"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	i.ID = head.ID
	i.Draft = head.Draft
	i.Raw = append(json.RawMessage(nil), data...)
	return nil
}

type Attachment struct {
	ID          int64  `json:"id"`
	FileName    string `json:"file_name"`
	ContentURL  string `json:"content_url"`
	ContentType string `json:"content_type,omitempty"`
	Inline      bool   `json:"inline"`
}

// Translation is the payload of a translation create or update. Articles use
// Title, Body and Draft; sections and categories use Name and Description.
type Translation struct {
	Locale      string  `json:"locale"`
	Title       *string `json:"title,omitempty"`
	Body        *string `json:"body,omitempty"`
	Draft       *bool   `json:"draft,omitempty"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// UpsertOutcome reports what UpsertTranslation did.
type UpsertOutcome int

const (
	Updated UpsertOutcome = iota
	Created
	SourceGone
)

func (o UpsertOutcome) String() string {
	switch o {
	case Updated:
		return "updated"
	case Created:
		return "created"
	case SourceGone:
		return "source_gone"
	default:
		return "unknown"
	}
}
