package indexing

import (
	"path"
	"slices"
	"strings"
	"unicode"
)

// Stem strips the document extension from a filename.
// ok is false when the extension is not one of exts.
func Stem(filename string, exts []string) (stem string, ok bool) {
	ext := path.Ext(filename)
	if ext == "" || !slices.Contains(exts, ext) {
		return "", false
	}
	return strings.TrimSuffix(filename, ext), true
}

// Slug derives the path segments of a document from its directory prefix and filename stem.
// An index document stands for its directory, so its own segment is dropped.
func Slug(prefix []string, stem string) []string {
	slug := slices.Clone(prefix)
	if stem != IndexSentinel {
		slug = append(slug, stem)
	}
	return slug
}

// Href builds the site URL of a slug, e.g. ["modding", "plugins"] -> "/docs/modding/plugins"
func Href(slug []string) string {
	return HrefPrefix + strings.Join(slug, "/")
}

// Excerpt returns the first n runes of body
func Excerpt(body string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range body {
		if count == n {
			return body[:i]
		}
		count++
	}
	return body
}

// ResolveTitle picks the explicit title, then the sidebar label, then the filename stem
func ResolveTitle(meta Metadata, stem string) string {
	if title := meta.String("title"); title != "" {
		return title
	}
	if label := meta.String("sidebar_label"); label != "" {
		return label
	}
	return stem
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "as": true, "by": true, "is": true,
	"it": true, "be": true, "with": true, "from": true, "that": true,
	"le": true, "la": true, "les": true, "de": true, "des": true,
	"du": true, "un": true, "une": true, "et": true, "en": true,
	"pour": true, "dans": true, "sur": true, "est": true, "par": true,
}

// ExtractKeywords extracts up to 10 significant lowercase terms from the title and the
// first 200 runes of content, in alphabetical order
func ExtractKeywords(title, content string) []string {
	words := strings.Fields(strings.ToLower(title))
	words = append(words, strings.Fields(strings.ToLower(Excerpt(content, 200)))...)

	seen := make(map[string]bool)
	keywords := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len([]rune(word)) > 2 && !stopWords[word] && !seen[word] {
			seen[word] = true
			keywords = append(keywords, word)
		}
	}

	slices.Sort(keywords)
	if len(keywords) > 10 {
		keywords = keywords[:10]
	}
	return keywords
}
