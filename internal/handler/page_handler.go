package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/clusterwiki/internal/db"
	"github.com/clusterwiki/internal/service"
	"github.com/gin-gonic/gin"
)

type pageForm struct {
	Title string
	Slug  string
	Body  string
}

// RedirectHome sends the landing page to the page list.
func (a *API) RedirectHome(c *gin.Context) {
	c.Redirect(http.StatusFound, "/pages")
}

// ListPages renders all pages grouped by category, optionally filtered by ?q=.
func (a *API) ListPages(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))

	pages, err := a.pages.List(c.Request.Context(), query)
	if err != nil {
		status, message := failPage(c, err)
		a.renderHTML(c, status, "error.html", gin.H{"title": "Pages", "error": message, "query": query})
		return
	}

	a.renderHTML(c, http.StatusOK, "list.html", gin.H{
		"title":    "Pages",
		"query":    query,
		"pages":    pages,
		"groups":   service.GroupByCategory(pages),
		"featured": service.ChooseFeatured(pages),
	})
}

// NewPage renders an empty editor.
func (a *API) NewPage(c *gin.Context) {
	a.renderHTML(c, http.StatusOK, "edit.html", gin.H{
		"title": "New page",
		"isNew": true,
		"page":  pageForm{},
	})
}

// SavePage creates a page, or updates the one named by original_slug.
func (a *API) SavePage(c *gin.Context) {
	originalSlug := strings.TrimSpace(c.PostForm("original_slug"))
	input := service.PageInput{
		Title: c.PostForm("title"),
		Body:  c.PostForm("body"),
		Slug:  c.PostForm("slug"),
	}

	var (
		page *db.Page
		err  error
	)
	if originalSlug != "" {
		page, err = a.pages.Update(c.Request.Context(), originalSlug, input)
	} else {
		page, err = a.pages.Create(c.Request.Context(), input)
	}
	if err != nil {
		status, message := failPage(c, err)
		if status == http.StatusNotFound {
			a.renderHTML(c, status, "error.html", gin.H{"title": "Page not found", "error": message})
			return
		}
		a.renderHTML(c, status, "edit.html", gin.H{
			"title":        "Edit page",
			"isNew":        originalSlug == "",
			"originalSlug": originalSlug,
			"error":        message,
			"page":         pageForm{Title: input.Title, Slug: input.Slug, Body: input.Body},
		})
		return
	}

	addFlash(c, "Page saved")
	c.Redirect(http.StatusFound, "/pages/"+url.PathEscape(page.Slug))
}

// ViewPage renders a single page.
func (a *API) ViewPage(c *gin.Context) {
	page, err := a.pages.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		status, message := failPage(c, err)
		a.renderHTML(c, status, "error.html", gin.H{"title": "Page not found", "error": message})
		return
	}

	a.renderHTML(c, http.StatusOK, "view.html", gin.H{
		"title":    page.Title,
		"page":     page,
		"category": service.Categorize(*page),
	})
}

// EditPage renders the editor for an existing page.
func (a *API) EditPage(c *gin.Context) {
	page, err := a.pages.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		status, message := failPage(c, err)
		a.renderHTML(c, status, "error.html", gin.H{"title": "Page not found", "error": message})
		return
	}

	a.renderHTML(c, http.StatusOK, "edit.html", gin.H{
		"title":        "Edit " + page.Title,
		"isNew":        false,
		"originalSlug": page.Slug,
		"page":         pageForm{Title: page.Title, Slug: page.Slug, Body: page.Body},
	})
}
