package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clusterwiki/internal/db"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"
)

var (
	ErrPageNotFound  = errors.New("page not found")
	ErrDuplicateSlug = errors.New("a page with that slug already exists")
	ErrValidation    = errors.New("invalid page")
)

// PageInput carries the user supplied fields of a page. Slug is optional;
// when empty the slug is derived from Title.
type PageInput struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Slug  string `json:"slug"`
}

// Validate checks that title and body are present.
func (in PageInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required.Error("is required")),
		validation.Field(&in.Body, validation.Required.Error("is required")),
	)
}

func (in PageInput) trimmed() PageInput {
	return PageInput{
		Title: strings.TrimSpace(in.Title),
		Body:  strings.TrimSpace(in.Body),
		Slug:  strings.TrimSpace(in.Slug),
	}
}

// prepare trims and validates the input and resolves its slug.
func (in PageInput) prepare() (PageInput, string, error) {
	input := in.trimmed()
	if err := input.Validate(); err != nil {
		return input, "", fmt.Errorf("%w: %w", ErrValidation, err)
	}

	source := input.Slug
	if source == "" {
		source = input.Title
	}
	slug, err := Slugify(source)
	if err != nil {
		return input, "", err
	}
	return input, slug, nil
}

// PageService owns persisted pages and slug uniqueness.
type PageService struct {
	db *gorm.DB
}

// NewPageService returns a PageService bound to the given store handle.
func NewPageService(gdb *gorm.DB) *PageService {
	return &PageService{db: gdb}
}

// Create inserts a new page.
func (s *PageService) Create(ctx context.Context, input PageInput) (*db.Page, error) {
	input, slug, err := input.prepare()
	if err != nil {
		return nil, err
	}

	var page *db.Page
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := insertPage(tx, slug, input)
		if err != nil {
			return err
		}
		page = created
		return nil
	}); err != nil {
		return nil, err
	}
	return page, nil
}

// Update rewrites the page currently addressed by originalSlug. The slug may
// change as long as it does not collide with another page.
func (s *PageService) Update(ctx context.Context, originalSlug string, input PageInput) (*db.Page, error) {
	input, slug, err := input.prepare()
	if err != nil {
		return nil, err
	}

	var page db.Page
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("slug = ?", strings.TrimSpace(originalSlug)).First(&page).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPageNotFound
			}
			return err
		}

		if slug != page.Slug {
			taken, err := slugTaken(tx, slug, page.ID)
			if err != nil {
				return err
			}
			if taken {
				return ErrDuplicateSlug
			}
		}

		updates := map[string]interface{}{
			"slug":       slug,
			"title":      input.Title,
			"body":       input.Body,
			"updated_at": tx.Config.NowFunc(),
		}
		if err := tx.Model(&db.Page{}).Where("id = ?", page.ID).Updates(updates).Error; err != nil {
			return translateWriteError(err)
		}

		return tx.First(&page, page.ID).Error
	}); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetBySlug fetches a page for a given slug.
func (s *PageService) GetBySlug(ctx context.Context, slug string) (*db.Page, error) {
	var page db.Page
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

// List returns pages ordered by title, ignoring case. A non-empty search
// keeps only pages whose title or body contains it.
func (s *PageService) List(ctx context.Context, search string) ([]db.Page, error) {
	query := s.db.WithContext(ctx).Model(&db.Page{})
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + escapeLike(search) + "%"
		query = query.Where(`title LIKE ? ESCAPE '\' OR body LIKE ? ESCAPE '\'`, like, like)
	}

	var pages []db.Page
	if err := query.Order("title COLLATE NOCASE asc").Order("id asc").Find(&pages).Error; err != nil {
		return nil, err
	}
	return pages, nil
}

// Count returns the number of stored pages.
func (s *PageService) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&db.Page{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

type preparedPage struct {
	input PageInput
	slug  string
}

func prepareAll(inputs []PageInput) ([]preparedPage, error) {
	prepared := make([]preparedPage, 0, len(inputs))
	for i, raw := range inputs {
		input, slug, err := raw.prepare()
		if err != nil {
			return nil, fmt.Errorf("page %d (%q): %w", i+1, raw.Title, err)
		}
		prepared = append(prepared, preparedPage{input: input, slug: slug})
	}
	return prepared, nil
}

// CreateAllIfEmpty inserts inputs in order, in one transaction, but only when
// the store holds no page. It returns 0 for a non-empty store. A failure on
// any input leaves the store untouched.
func (s *PageService) CreateAllIfEmpty(ctx context.Context, inputs []PageInput) (int, error) {
	prepared, err := prepareAll(inputs)
	if err != nil {
		return 0, err
	}

	inserted := 0
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&db.Page{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		if err := insertAll(tx, prepared); err != nil {
			return err
		}
		inserted = len(prepared)
		return nil
	}); err != nil {
		return 0, err
	}
	return inserted, nil
}

// ReplaceAll deletes every page and inserts inputs in one transaction.
// Either the whole new set becomes visible or nothing changes.
func (s *PageService) ReplaceAll(ctx context.Context, inputs []PageInput) (int, error) {
	prepared, err := prepareAll(inputs)
	if err != nil {
		return 0, err
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&db.Page{}).Error; err != nil {
			return err
		}
		return insertAll(tx, prepared)
	}); err != nil {
		return 0, err
	}

	return len(prepared), nil
}

func insertAll(tx *gorm.DB, prepared []preparedPage) error {
	for _, p := range prepared {
		if _, err := insertPage(tx, p.slug, p.input); err != nil {
			return fmt.Errorf("insert %q: %w", p.slug, err)
		}
	}
	return nil
}

func insertPage(tx *gorm.DB, slug string, input PageInput) (*db.Page, error) {
	taken, err := slugTaken(tx, slug, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateSlug
	}

	page := db.Page{
		Slug:  slug,
		Title: input.Title,
		Body:  input.Body,
	}
	if err := tx.Create(&page).Error; err != nil {
		return nil, translateWriteError(err)
	}
	return &page, nil
}

func slugTaken(tx *gorm.DB, slug string, excludeID uint) (bool, error) {
	query := tx.Model(&db.Page{}).Where("slug = ?", slug)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// translateWriteError maps the unique index violation onto ErrDuplicateSlug
// for writes that race the pre-check.
func translateWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateSlug
	}
	return err
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return replacer.Replace(value)
}
