package db

import "time"

// Page 是一篇 wiki 页面，按 slug 唯一寻址。
type Page struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Slug      string    `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Title     string    `gorm:"not null" json:"title"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

// TableName 固定表名，保持与既有数据文件一致。
func (Page) TableName() string {
	return "pages"
}
