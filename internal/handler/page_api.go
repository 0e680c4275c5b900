package handler

import (
	"net/http"
	"strings"

	"github.com/clusterwiki/internal/db"
	"github.com/clusterwiki/internal/service"
	"github.com/gin-gonic/gin"
)

const apiExcerptLength = 160

type pagePayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Slug  string `json:"slug"`
}

type pageResponse struct {
	db.Page
	Category string `json:"category"`
	Excerpt  string `json:"excerpt"`
}

func newPageResponse(page db.Page) pageResponse {
	return pageResponse{
		Page:     page,
		Category: service.Categorize(page),
		Excerpt:  service.Excerpt(page.Body, apiExcerptLength),
	}
}

// GetPages lists pages as JSON, honouring ?q=.
func (a *API) GetPages(c *gin.Context) {
	pages, err := a.pages.List(c.Request.Context(), strings.TrimSpace(c.Query("q")))
	if err != nil {
		respondPageError(c, err)
		return
	}

	items := make([]pageResponse, 0, len(pages))
	for _, page := range pages {
		items = append(items, newPageResponse(page))
	}

	var featured string
	if page := service.ChooseFeatured(pages); page != nil {
		featured = page.Slug
	}

	c.JSON(http.StatusOK, gin.H{
		"pages":    items,
		"total":    len(items),
		"featured": featured,
	})
}

// GetPage returns one page as JSON.
func (a *API) GetPage(c *gin.Context) {
	page, err := a.pages.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondPageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": newPageResponse(*page)})
}

// CreatePage creates a page from a JSON payload.
func (a *API) CreatePage(c *gin.Context) {
	var payload pagePayload
	if !bindJSON(c, &payload, "Invalid page payload") {
		return
	}

	page, err := a.pages.Create(c.Request.Context(), service.PageInput(payload))
	if err != nil {
		respondPageError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"page": newPageResponse(*page)})
}

// UpdatePage rewrites the page addressed by the :slug path parameter.
func (a *API) UpdatePage(c *gin.Context) {
	var payload pagePayload
	if !bindJSON(c, &payload, "Invalid page payload") {
		return
	}

	page, err := a.pages.Update(c.Request.Context(), c.Param("slug"), service.PageInput(payload))
	if err != nil {
		respondPageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": newPageResponse(*page)})
}

func respondPageError(c *gin.Context, err error) {
	status, message := failPage(c, err)
	respondError(c, status, message)
}
