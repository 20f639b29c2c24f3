package indexing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnterminatedFrontMatter is returned when an opening delimiter has no closing line
	ErrUnterminatedFrontMatter = errors.New("front-matter block is not terminated")

	// ErrInvalidFrontMatter is returned when the block does not decode into a key/value mapping
	ErrInvalidFrontMatter = errors.New("front-matter block is not a valid mapping")
)

// Metadata is the decoded front-matter of a document
type Metadata map[string]any

type frontMatterFormat struct {
	name      string
	close     string
	unmarshal func([]byte, any) error
}

var (
	yamlFormat = &frontMatterFormat{name: "yaml", close: "---", unmarshal: yaml.Unmarshal}
	tomlFormat = &frontMatterFormat{name: "toml", close: "---", unmarshal: toml.Unmarshal}
	hugoFormat = &frontMatterFormat{name: "toml", close: "+++", unmarshal: toml.Unmarshal}
)

// detectFormat maps an opening delimiter line to its format
func detectFormat(line string) *frontMatterFormat {
	switch strings.TrimRight(line, " \t\r") {
	case "---", "---yaml", "---yml":
		return yamlFormat
	case "---toml":
		return tomlFormat
	case "+++":
		return hugoFormat
	}
	return nil
}

// SplitFrontMatter separates the front-matter block at the top of raw from the body.
// Text without an opening delimiter on its first line has no metadata and is all body.
func SplitFrontMatter(raw string) (Metadata, string, error) {
	text := strings.TrimPrefix(raw, "\ufeff")

	firstLine, rest, _ := strings.Cut(text, "\n")
	format := detectFormat(firstLine)
	if format == nil {
		return Metadata{}, text, nil
	}

	pos := 0
	for {
		end := strings.IndexByte(rest[pos:], '\n')
		line, next := rest[pos:], len(rest)
		if end >= 0 {
			line, next = rest[pos:pos+end], pos+end+1
		}

		if strings.TrimRight(line, " \t\r") == format.close {
			meta, err := decodeFrontMatter(format, rest[:pos])
			if err != nil {
				return nil, "", err
			}
			return meta, rest[next:], nil
		}

		if end < 0 {
			return nil, "", ErrUnterminatedFrontMatter
		}
		pos = next
	}
}

func decodeFrontMatter(format *frontMatterFormat, block string) (Metadata, error) {
	if strings.TrimSpace(block) == "" {
		return Metadata{}, nil
	}

	var meta map[string]any
	if err := format.unmarshal([]byte(block), &meta); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFrontMatter, format.name, err)
	}
	if meta == nil {
		return Metadata{}, nil
	}
	return Metadata(meta), nil
}

// String returns the scalar value stored under key rendered as text.
// Strings are returned as-is, numbers in decimal; other types and missing keys yield "".
func (m Metadata) String(key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case int, int64, uint64, float64:
		return fmt.Sprint(v)
	}
	return ""
}
