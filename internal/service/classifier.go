package service

import (
	"regexp"
	"strings"

	"github.com/clusterwiki/internal/db"
)

// Display categories, in the order they are rendered.
const (
	CategoryGettingStarted = "Getting Started"
	CategoryOperations     = "Operations"
	CategoryReference      = "Reference"
	CategoryNotes          = "Notes"
)

// categoryRule maps a category to the keywords that select it.
type categoryRule struct {
	Category string
	Keywords []string
}

// categoryRules is evaluated top to bottom; the first rule sharing a keyword
// with the page wins. Reordering it changes how ambiguous pages are filed.
var categoryRules = []categoryRule{
	{
		Category: CategoryGettingStarted,
		Keywords: []string{"start", "started", "setup", "install", "installation", "onboarding", "welcome", "overview", "intro", "introduction", "quickstart"},
	},
	{
		Category: CategoryOperations,
		Keywords: []string{"runbook", "runbooks", "ops", "deploy", "deployment", "incident", "backup", "restore", "monitoring", "upgrade", "maintenance", "troubleshooting"},
	},
	{
		Category: CategoryReference,
		Keywords: []string{"reference", "api", "config", "configuration", "architecture", "glossary", "faq", "spec", "cli"},
	},
}

var categoryOrder = []string{
	CategoryGettingStarted,
	CategoryOperations,
	CategoryReference,
	CategoryNotes,
}

// featuredSlugs lists the landing page candidates by preference.
var featuredSlugs = []string{"home", "welcome", "getting-started", "overview", "index"}

var wordSplitPattern = regexp.MustCompile(`[^a-z0-9]+`)

// CategoryGroup is one display bucket of pages.
type CategoryGroup struct {
	Category string
	Pages    []db.Page
}

// Categorize returns the display category for a page.
func Categorize(page db.Page) string {
	text := strings.ToLower(page.Title + " " + page.Slug)
	words := make(map[string]struct{})
	for _, word := range wordSplitPattern.Split(text, -1) {
		if word != "" {
			words[word] = struct{}{}
		}
	}

	for _, rule := range categoryRules {
		for _, keyword := range rule.Keywords {
			if _, ok := words[keyword]; ok {
				return rule.Category
			}
		}
	}
	return CategoryNotes
}

// GroupByCategory buckets pages in display order, dropping empty categories.
// Pages keep their relative input order within a bucket.
func GroupByCategory(pages []db.Page) []CategoryGroup {
	buckets := make(map[string][]db.Page, len(categoryOrder))
	for _, page := range pages {
		category := Categorize(page)
		buckets[category] = append(buckets[category], page)
	}

	groups := make([]CategoryGroup, 0, len(buckets))
	for _, category := range categoryOrder {
		if matched := buckets[category]; len(matched) > 0 {
			groups = append(groups, CategoryGroup{Category: category, Pages: matched})
		}
	}
	return groups
}

// ChooseFeatured picks the landing page: the first preferred slug present,
// otherwise the first page as given. It returns nil for an empty input.
func ChooseFeatured(pages []db.Page) *db.Page {
	if len(pages) == 0 {
		return nil
	}

	for _, slug := range featuredSlugs {
		for i := range pages {
			if pages[i].Slug == slug {
				return &pages[i]
			}
		}
	}
	return &pages[0]
}
