// Package seed reads the managed seed pages that bootstrap an empty wiki.
//
// A seed file is markdown with an optional metadata block:
//
//	---
//	title: Getting Started
//	slug: getting-started
//	---
//	Body text.
//
// Slugs are not normalised here; that happens when the pages are written.
package seed

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrInvalidSeed marks a seed file that cannot be turned into a page.
var ErrInvalidSeed = errors.New("invalid seed page")

const metadataDelimiter = "---"

var seedExtensions = map[string]struct{}{
	".md":       {},
	".markdown": {},
}

// Page is one parsed seed file.
type Page struct {
	File  string
	Title string
	Slug  string
	Body  string
}

// SlugSource returns the text the page slug is derived from.
func (p Page) SlugSource() string {
	if p.Slug != "" {
		return p.Slug
	}
	return p.Title
}

// Error describes why a seed file was rejected. Line is zero when the
// problem is not tied to a single line.
type Error struct {
	File   string
	Line   int
	Reason string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("seed %s:%d: %s", e.File, e.Line, e.Reason)
	}
	return fmt.Sprintf("seed %s: %s", e.File, e.Reason)
}

func (e *Error) Unwrap() error {
	return ErrInvalidSeed
}

// Load parses every seed file in dir, ordered by filename. A missing
// directory yields no pages and no error.
func Load(dir string) ([]Page, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Page{}, nil
		}
		return nil, fmt.Errorf("read seed directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if _, ok := seedExtensions[strings.ToLower(filepath.Ext(entry.Name()))]; !ok {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	pages := make([]Page, 0, len(names))
	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read seed %s: %w", name, err)
		}
		page, err := Parse(name, string(raw))
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// Parse turns the content of a single seed file into a Page. name is only
// used for diagnostics.
func Parse(name, content string) (Page, error) {
	content = strings.TrimPrefix(content, "\ufeff")
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	page := Page{File: name}
	bodyStart := 0
	if len(lines) > 0 && strings.TrimSpace(lines[0]) == metadataDelimiter {
		closing := -1
		for i := 1; i < len(lines); i++ {
			line := strings.TrimSpace(lines[i])
			if line == metadataDelimiter {
				closing = i
				break
			}
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			key, value, ok := strings.Cut(line, ":")
			if !ok {
				return Page{}, &Error{File: name, Line: i + 1, Reason: fmt.Sprintf("metadata line %q is not in key: value form", line)}
			}
			switch strings.ToLower(strings.TrimSpace(key)) {
			case "title":
				page.Title = unquote(strings.TrimSpace(value))
			case "slug":
				page.Slug = unquote(strings.TrimSpace(value))
			}
		}
		if closing < 0 {
			return Page{}, &Error{File: name, Reason: "metadata block is missing its closing delimiter"}
		}
		bodyStart = closing + 1
	}

	page.Body = strings.TrimSpace(strings.Join(lines[bodyStart:], "\n"))
	if page.Title == "" {
		page.Title = headingTitle(page.Body)
	}

	if page.Title == "" {
		return Page{}, &Error{File: name, Reason: "title is missing"}
	}
	if page.Body == "" {
		return Page{}, &Error{File: name, Reason: "body is empty"}
	}
	return page, nil
}

// headingTitle returns the text of the first level-one heading, stripped of
// emphasis markers.
func headingTitle(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "# ") {
			continue
		}
		title := strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
		return strings.TrimSpace(strings.Trim(title, "*_"))
	}
	return ""
}

func unquote(value string) string {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}
