// Package persistence implements the relational stores behind the domain
// repositories using GORM.
package persistence

import "time"

// CollectionModel is the database representation of a collection.
type CollectionModel struct {
	Name        string    `gorm:"primaryKey;size:255"`
	Description string    `gorm:"size:1024"`
	CreatedAt   time.Time `gorm:"not null"`
	DocsCount   int64     `gorm:"not null;default:0"`
}

// TableName overrides the GORM table name.
func (CollectionModel) TableName() string { return "collections" }

// DocumentModel is the database representation of an uploaded document.
type DocumentModel struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	Filename   string    `gorm:"size:512;not null"`
	Collection string    `gorm:"size:255;not null;index"`
	Size       int64     `gorm:"not null"`
	Content    []byte    `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName overrides the GORM table name.
func (DocumentModel) TableName() string { return "documents" }
