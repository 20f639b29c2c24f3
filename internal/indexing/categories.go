package indexing

// CategoryTable maps locale -> top-level segment -> human readable label
type CategoryTable struct {
	labels   map[string]map[string]string
	fallback string
}

// DefaultCategoryLabels are the labels shipped with the site
func DefaultCategoryLabels() map[string]map[string]string {
	return map[string]map[string]string{
		"fr": {
			"getting-started": "Pour Commencer",
			"gameplay":        "Gameplay",
			"modding":         "Modding",
			"servers":         "Serveurs",
			"api":             "API",
			"tools":           "Outils",
			"guides":          "Guides",
			"community":       "Communauté",
		},
		"en": {
			"getting-started": "Getting Started",
			"gameplay":        "Gameplay",
			"modding":         "Modding",
			"servers":         "Servers",
			"api":             "API",
			"tools":           "Tools",
			"guides":          "Guides",
			"community":       "Community",
		},
	}
}

// NewCategoryTable builds a table from the default labels merged with overrides.
// Override entries replace or add single labels; fallback names the locale used for unknown locales.
func NewCategoryTable(overrides map[string]map[string]string, fallback string) *CategoryTable {
	labels := DefaultCategoryLabels()
	for locale, entries := range overrides {
		if labels[locale] == nil {
			labels[locale] = make(map[string]string, len(entries))
		}
		for segment, label := range entries {
			labels[locale][segment] = label
		}
	}

	if fallback == "" {
		fallback = FallbackLocale
	}

	return &CategoryTable{labels: labels, fallback: fallback}
}

// Labels returns the label set for locale, or the fallback set when the locale is unknown
func (t *CategoryTable) Labels(locale string) map[string]string {
	if labels, ok := t.labels[locale]; ok {
		return labels
	}
	return t.labels[t.fallback]
}

// Resolve returns the category of a document whose directory prefix is given.
// Root-level documents always resolve to DefaultCategory.
func (t *CategoryTable) Resolve(locale string, prefix []string) string {
	if len(prefix) == 0 {
		return DefaultCategory
	}

	segment := prefix[0]
	if label, ok := t.Labels(locale)[segment]; ok && label != "" {
		return label
	}
	return segment
}
