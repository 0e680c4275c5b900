package service

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidSlug is returned when a value normalises to an empty slug.
var ErrInvalidSlug = errors.New("slug cannot be empty")

var (
	slugSeparatorPattern = regexp.MustCompile(`[^a-z0-9]+`)
	slugPattern          = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Slugify lowercases value, collapses every run of characters outside
// [a-z0-9] into a single hyphen and trims hyphens from both ends.
func Slugify(value string) (string, error) {
	slug := slugSeparatorPattern.ReplaceAllString(strings.ToLower(value), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "", ErrInvalidSlug
	}
	return slug, nil
}

// IsValidSlug reports whether value is already in normalised slug form.
func IsValidSlug(value string) bool {
	return slugPattern.MatchString(value)
}
