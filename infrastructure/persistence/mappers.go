package persistence

import (
	"github.com/docdexhq/docdex/domain/collection"
	"github.com/docdexhq/docdex/domain/document"
)

func collectionToModel(c collection.Collection) CollectionModel {
	return CollectionModel{
		Name:        c.Name(),
		Description: c.Description(),
		CreatedAt:   c.CreatedAt(),
		DocsCount:   c.DocsCount(),
	}
}

func collectionFromModel(m CollectionModel) collection.Collection {
	return collection.Reconstruct(m.Name, m.Description, m.CreatedAt, m.DocsCount)
}

func documentToModel(d document.Document) DocumentModel {
	return DocumentModel{
		ID:         d.ID(),
		Filename:   d.Filename(),
		Collection: d.Collection(),
		Size:       d.Size(),
		Content:    d.Content(),
		CreatedAt:  d.CreatedAt(),
	}
}

func documentFromModel(m DocumentModel) document.Document {
	return document.Reconstruct(m.ID, m.Filename, m.Collection, m.Size, m.Content, m.CreatedAt)
}
