package payloadschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed article.schema.json
var articleSchemaJSON string

//go:embed section.schema.json
var sectionSchemaJSON string

// Translation holds the translated fields of a downloaded Help Center item.
// Articles fill Title, Body and Draft; sections and categories fill Name and Description.
type Translation struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title,omitempty"`
	Body        *string `json:"body,omitempty"`
	Draft       bool    `json:"draft,omitempty"`
	Name        string  `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

var (
	compileOnce     sync.Once
	compiledSchemas map[string]*jsonschema.Schema
	compileErr      error
)

// ValidateTranslationPayload checks a translated file for the given item type
// ("article", "section" or "category") and returns its translated fields.
func ValidateTranslationPayload(itemType string, payload []byte) (*Translation, error) {
	schemaName, err := schemaFor(itemType)
	if err != nil {
		return nil, err
	}

	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload JSON: %w", err)
	}

	schemas, err := loadSchemas()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	if err := schemas[schemaName].Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize payload JSON: %w", err)
	}
	var translation Translation
	if err := json.Unmarshal(normalized, &translation); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := validateSemantics(itemType, &translation); err != nil {
		return nil, err
	}
	return &translation, nil
}

func schemaFor(itemType string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(itemType)) {
	case "article":
		return "article.schema.json", nil
	case "section", "category":
		return "section.schema.json", nil
	default:
		return "", fmt.Errorf("no schema for item type %q", itemType)
	}
}

func loadSchemas() (map[string]*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		resources := map[string]string{
			"article.schema.json": articleSchemaJSON,
			"section.schema.json": sectionSchemaJSON,
		}
		schemas := make(map[string]*jsonschema.Schema, len(resources))
		for name, source := range resources {
			if err := compiler.AddResource(name, strings.NewReader(source)); err != nil {
				compileErr = fmt.Errorf("add schema resource %s: %w", name, err)
				return
			}
		}
		for name := range resources {
			schema, err := compiler.Compile(name)
			if err != nil {
				compileErr = fmt.Errorf("compile schema %s: %w", name, err)
				return
			}
			schemas[name] = schema
		}
		compiledSchemas = schemas
	})

	if compileErr != nil {
		return nil, compileErr
	}
	if compiledSchemas == nil {
		return nil, fmt.Errorf("schemas not initialized")
	}
	return compiledSchemas, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}
	return value, nil
}

func validateSemantics(itemType string, translation *Translation) error {
	if translation == nil {
		return fmt.Errorf("payload is nil")
	}
	if translation.ID <= 0 {
		return fmt.Errorf("id must be positive")
	}

	if strings.EqualFold(strings.TrimSpace(itemType), "article") {
		if strings.TrimSpace(translation.Title) == "" {
			return fmt.Errorf("title must not be empty")
		}
		return nil
	}
	if strings.TrimSpace(translation.Name) == "" {
		return fmt.Errorf("name must not be empty")
	}
	return nil
}
