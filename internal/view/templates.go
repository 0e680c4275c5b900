package view

import (
	"embed"
	"html/template"
	"time"

	"github.com/clusterwiki/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

// ExcerptLength 是列表页摘要的最大字符数。
const ExcerptLength = 160

// FuncMap 返回模板可用的辅助函数。
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"markdown": RenderMarkdown,
		"excerpt": func(body string) string {
			return service.Excerpt(body, ExcerptLength)
		},
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.UTC().Format("2006-01-02 15:04 UTC")
		},
	}
}

// Templates 解析内嵌的页面模板。
func Templates() (*template.Template, error) {
	return template.New("").Funcs(FuncMap()).ParseFS(templateFS, "templates/*.html")
}
