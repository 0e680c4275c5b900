package service

import (
	"context"
	"fmt"

	"github.com/clusterwiki/internal/db"
	"github.com/clusterwiki/internal/seed"
)

// pageStore is the part of PageService the seeder relies on.
type pageStore interface {
	CreateAllIfEmpty(ctx context.Context, inputs []PageInput) (int, error)
	List(ctx context.Context, search string) ([]db.Page, error)
	ReplaceAll(ctx context.Context, inputs []PageInput) (int, error)
}

// Drift states reported by SeedService.Drift.
const (
	DriftInSync    = "in-sync"
	DriftModified  = "modified"
	DriftMissing   = "missing"
	DriftUnmanaged = "unmanaged"
	DriftInvalid   = "invalid"
)

// DriftEntry compares one seed page (or one unmanaged stored page) with the store.
type DriftEntry struct {
	Slug   string
	Title  string
	File   string
	Status string
}

// SeedService bootstraps and resets the store from seed pages.
type SeedService struct {
	pages pageStore
}

// NewSeedService returns a SeedService writing through pages.
func NewSeedService(pages pageStore) *SeedService {
	return &SeedService{pages: pages}
}

// SeedIfEmpty creates the seed pages in order when the store holds no page
// at all. Any existing page, seeded or not, turns it into a no-op. The whole
// set is written in one transaction, so a bad seed leaves the store empty
// and the next start tries again.
func (s *SeedService) SeedIfEmpty(ctx context.Context, pages []seed.Page) (int, error) {
	inputs, err := seedInputs(pages)
	if err != nil {
		return 0, err
	}
	return s.pages.CreateAllIfEmpty(ctx, inputs)
}

// Reseed atomically replaces every stored page, user edits included, with
// the seed set and returns how many pages were written.
func (s *SeedService) Reseed(ctx context.Context, pages []seed.Page) (int, error) {
	inputs, err := seedInputs(pages)
	if err != nil {
		return 0, err
	}
	return s.pages.ReplaceAll(ctx, inputs)
}

// seedInputs validates the seed set before anything is written and names the
// offending file: invalid title, body or slug, or two files sharing a slug.
func seedInputs(pages []seed.Page) ([]PageInput, error) {
	inputs := make([]PageInput, 0, len(pages))
	owners := make(map[string]string, len(pages))
	for _, page := range pages {
		input := seedInput(page)
		_, slug, err := input.prepare()
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", page.File, err)
		}
		if other, ok := owners[slug]; ok {
			return nil, fmt.Errorf("seed %s: slug %q also used by %s: %w", page.File, slug, other, ErrDuplicateSlug)
		}
		owners[slug] = page.File
		inputs = append(inputs, input)
	}
	return inputs, nil
}

// Drift reports how far the store has moved away from the seed set.
func (s *SeedService) Drift(ctx context.Context, pages []seed.Page) ([]DriftEntry, error) {
	stored, err := s.pages.List(ctx, "")
	if err != nil {
		return nil, err
	}

	bySlug := make(map[string]db.Page, len(stored))
	for _, page := range stored {
		bySlug[page.Slug] = page
	}

	entries := make([]DriftEntry, 0, len(pages)+len(stored))
	managed := make(map[string]struct{}, len(pages))
	for _, page := range pages {
		entry := DriftEntry{Title: page.Title, File: page.File}

		input, slug, err := seedInput(page).prepare()
		if err != nil {
			entry.Status = DriftInvalid
			entries = append(entries, entry)
			continue
		}
		entry.Slug = slug
		managed[slug] = struct{}{}

		current, ok := bySlug[slug]
		switch {
		case !ok:
			entry.Status = DriftMissing
		case seed.Fingerprint(slug, input.Title, input.Body) != seed.Fingerprint(current.Slug, current.Title, current.Body):
			entry.Status = DriftModified
		default:
			entry.Status = DriftInSync
		}
		entries = append(entries, entry)
	}

	for _, page := range stored {
		if _, ok := managed[page.Slug]; ok {
			continue
		}
		entries = append(entries, DriftEntry{Slug: page.Slug, Title: page.Title, Status: DriftUnmanaged})
	}
	return entries, nil
}

func seedInput(page seed.Page) PageInput {
	return PageInput{
		Title: page.Title,
		Body:  page.Body,
		Slug:  page.SlugSource(),
	}
}
