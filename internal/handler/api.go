package handler

import (
	"github.com/clusterwiki/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db       *gorm.DB
	pages    *service.PageService
	siteName string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, siteName string) *API {
	if siteName == "" {
		siteName = "Cluster Lite Wiki"
	}
	return &API{
		db:       gdb,
		pages:    service.NewPageService(gdb),
		siteName: siteName,
	}
}

func (a *API) renderHTML(c *gin.Context, status int, template string, data gin.H) {
	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}

	if _, exists := payload["siteName"]; !exists {
		payload["siteName"] = a.siteName
	}
	if _, exists := payload["flash"]; !exists {
		if flash := popFlash(c); flash != "" {
			payload["flash"] = flash
		}
	}

	c.HTML(status, template, payload)
}

// addFlash 在重定向前记录一次性提示；未启用会话中间件时忽略。
func addFlash(c *gin.Context, message string) {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return
	}
	session := sessions.Default(c)
	session.AddFlash(message)
	if err := session.Save(); err != nil {
		c.Error(err)
	}
}

func popFlash(c *gin.Context) string {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return ""
	}
	session := sessions.Default(c)
	flashes := session.Flashes()
	if len(flashes) == 0 {
		return ""
	}
	if err := session.Save(); err != nil {
		c.Error(err)
	}
	message, _ := flashes[0].(string)
	return message
}
