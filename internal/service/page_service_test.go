package service

import (
	"context"
	"testing"

	"github.com/clusterwiki/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageService_CreateDerivesSlugFromTitle(t *testing.T) {
	svc := NewPageService(setupPageServiceTestDB(t))
	ctx := context.Background()

	page, err := svc.Create(ctx, PageInput{Title: "Runbook", Body: "content"})
	require.NoError(t, err)

	assert.Equal(t, "runbook", page.Slug)
	assert.Equal(t, "Runbook", page.Title)
	assert.Equal(t, "content", page.Body)
	assert.NotZero(t, page.ID)
	assert.False(t, page.CreatedAt.IsZero())
	assert.True(t, page.CreatedAt.Equal(page.UpdatedAt))

	_, err = svc.Create(ctx, PageInput{Title: "RUNBOOK!", Body: "other"})
	assert.ErrorIs(t, err, ErrDuplicateSlug)
}

func TestPageService_CreateUsesRequestedSlug(t *testing.T) {
	svc := NewPageService(setupPageServiceTestDB(t))

	page, err := svc.Create(context.Background(), PageInput{Title: "Runbook", Body: "content", Slug: " Ops Runbook "})
	require.NoError(t, err)
	assert.Equal(t, "ops-runbook", page.Slug)
}

func TestPageService_CreateValidation(t *testing.T) {
	svc := NewPageService(setupPageServiceTestDB(t))
	ctx := context.Background()

	_, err := svc.Create(ctx, PageInput{Title: "  ", Body: "content"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, PageInput{Title: "Title", Body: "\n\t"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, PageInput{Title: "???", Body: "content"})
	assert.ErrorIs(t, err, ErrInvalidSlug)

	_, err = svc.Create(ctx, PageInput{Title: "Valid", Body: "content", Slug: "%%%"})
	assert.ErrorIs(t, err, ErrInvalidSlug)

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPageService_UpdateRenamesAndKeepsCreatedAt(t *testing.T) {
	svc := NewPageService(setupPageServiceTestDB(t))
	ctx := context.Background()

	created, err := svc.Create(ctx, PageInput{Title: "Runbook", Body: "# Welcome\n\nInitial content."})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "runbook", PageInput{Title: "Ops Runbook", Body: "Updated body.", Slug: "ops-runbook"})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "ops-runbook", updated.Slug)
	assert.Equal(t, "Ops Runbook", updated.Title)
	assert.Equal(t, "Updated body.", updated.Body)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	_, err = svc.GetBySlug(ctx, "runbook")
	assert.ErrorIs(t, err, ErrPageNotFound)

	fetched, err := svc.GetBySlug(ctx, "ops-runbook")
	require.NoError(t, err)
	assert.Equal(t, "Updated body.", fetched.Body)
}

func TestPageService_UpdateToOwnSlugSucceeds(t *testing.T) {
	svc := NewPageService(setupPageServiceTestDB(t))
	ctx := context.Background()

	_, err := svc.Create(ctx, PageInput{Title: "Runbook", Body: "v1"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "runbook", PageInput{Title: "Runbook", Body: "v2", Slug: "runbook"})
	require.NoError(t, err)
	assert.Equal(t, "v2", updated.Body)
}

func TestPageService_UpdateCollisionWithOtherPage(t *testing.T) {
	svc := NewPageService(setupPageServiceTestDB(t))
	ctx := context.Background()

	_, err := svc.Create(ctx, PageInput{Title: "Alpha", Body: "a"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, PageInput{Title: "Beta", Body: "b"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, "beta", PageInput{Title: "Beta", Body: "b", Slug: "alpha"})
	assert.ErrorIs(t, err, ErrDuplicateSlug)

	beta, err := svc.GetBySlug(ctx, "beta")
	require.NoError(t, err)
	assert.Equal(t, "Beta", beta.Title)
}

func TestPageService_UpdateUnknownPage(t *testing.T) {
	svc := NewPageService(setupPageServiceTestDB(t))

	_, err := svc.Update(context.Background(), "missing", PageInput{Title: "Missing", Body: "x"})
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestPageService_ListOrdersByTitleIgnoringCase(t *testing.T) {
	svc := NewPageService(setupPageServiceTestDB(t))
	ctx := context.Background()

	for _, title := range []string{"charlie", "Bravo", "alpha", "Delta"} {
		_, err := svc.Create(ctx, PageInput{Title: title, Body: "body"})
		require.NoError(t, err)
	}

	pages, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "Bravo", "charlie", "Delta"}, titles(pages))
}

func TestPageService_ListSearchFiltersTitleAndBody(t *testing.T) {
	svc := NewPageService(setupPageServiceTestDB(t))
	ctx := context.Background()

	_, err := svc.Create(ctx, PageInput{Title: "Alpha", Body: "cluster setup notes"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, PageInput{Title: "Beta", Body: "random topic"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, PageInput{Title: "SETUP guide", Body: "steps"})
	require.NoError(t, err)

	pages, err := svc.List(ctx, "setup")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "SETUP guide"}, titles(pages))

	pages, err = svc.List(ctx, "  ")
	require.NoError(t, err)
	assert.Len(t, pages, 3)
}

func TestPageService_ListSearchEscapesWildcards(t *testing.T) {
	svc := NewPageService(setupPageServiceTestDB(t))
	ctx := context.Background()

	_, err := svc.Create(ctx, PageInput{Title: "Disk usage", Body: "keep below 80% full"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, PageInput{Title: "Other", Body: "nothing to see"})
	require.NoError(t, err)

	pages, err := svc.List(ctx, "%")
	require.NoError(t, err)
	assert.Equal(t, []string{"Disk usage"}, titles(pages))

	pages, err = svc.List(ctx, "_")
	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestPageService_ReplaceAll(t *testing.T) {
	svc := NewPageService(setupPageServiceTestDB(t))
	ctx := context.Background()

	_, err := svc.Create(ctx, PageInput{Title: "User page", Body: "mine"})
	require.NoError(t, err)

	inserted, err := svc.ReplaceAll(ctx, []PageInput{
		{Title: "Seed One", Body: "one"},
		{Title: "Seed Two", Body: "two", Slug: "second"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	pages, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Seed One", "Seed Two"}, titles(pages))

	_, err = svc.GetBySlug(ctx, "user-page")
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestPageService_ReplaceAllIsAtomic(t *testing.T) {
	svc := NewPageService(setupPageServiceTestDB(t))
	ctx := context.Background()

	_, err := svc.Create(ctx, PageInput{Title: "Keep me", Body: "still here"})
	require.NoError(t, err)

	_, err = svc.ReplaceAll(ctx, []PageInput{
		{Title: "Twin", Body: "one"},
		{Title: "twin", Body: "two"},
	})
	require.ErrorIs(t, err, ErrDuplicateSlug)

	_, err = svc.ReplaceAll(ctx, []PageInput{
		{Title: "Fine", Body: "one"},
		{Title: "", Body: "two"},
	})
	require.ErrorIs(t, err, ErrValidation)

	pages, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Keep me"}, titles(pages))
}

func titles(pages []db.Page) []string {
	out := make([]string, 0, len(pages))
	for _, page := range pages {
		out = append(out, page.Title)
	}
	return out
}
