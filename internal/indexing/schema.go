package indexing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const metadataSchemaURL = "https://docsearch.local/schema/frontmatter.json"

// metadataSchema constrains the fields the indexer reads; unknown keys are allowed
const metadataSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"title":         {"type": ["string", "number", "null"]},
		"description":   {"type": ["string", "number", "null"]},
		"sidebar_label": {"type": ["string", "number", "null"]}
	}
}`

// MetadataValidator checks decoded front-matter against the metadata schema
type MetadataValidator struct {
	schema *jsonschema.Schema
}

// NewMetadataValidator compiles the front-matter schema
func NewMetadataValidator() (*MetadataValidator, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(metadataSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to parse metadata schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(metadataSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add metadata schema: %w", err)
	}

	schema, err := compiler.Compile(metadataSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile metadata schema: %w", err)
	}

	return &MetadataValidator{schema: schema}, nil
}

var defaultValidator = sync.OnceValue(func() *MetadataValidator {
	v, err := NewMetadataValidator()
	if err != nil {
		panic(err)
	}
	return v
})

// Validate reports the first schema violation of meta, if any
func (v *MetadataValidator) Validate(meta Metadata) error {
	if meta == nil {
		meta = Metadata{}
	}

	// Round-trip through JSON so YAML/TOML scalar types become JSON types
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("metadata is not JSON compatible: %w", err)
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("metadata is not JSON compatible: %w", err)
	}

	if err := v.schema.Validate(instance); err != nil {
		return err
	}
	return nil
}
