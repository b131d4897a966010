package store

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// document is the single-table representation of the store: one row per
// document, payload as JSONB.
type document struct {
	Collection string `gorm:"primaryKey;size:64"`
	Key        string `gorm:"primaryKey;size:255"`
	Data       []byte `gorm:"type:jsonb;not null"`
}

// TableName returns the database table name.
func (document) TableName() string {
	return "documents"
}

// GormGateway implements Gateway on a relational database via GORM.
type GormGateway struct {
	db *gorm.DB
}

// NewGormGateway creates a gateway backed by the given database.
func NewGormGateway(db *gorm.DB) (*GormGateway, error) {
	if err := db.AutoMigrate(&document{}); err != nil {
		return nil, fmt.Errorf("migrate documents table: %w", err)
	}
	return &GormGateway{db: db}, nil
}

// Get unmarshals the document at collection/key into out.
func (g *GormGateway) Get(ctx context.Context, collection, key string, out any) error {
	var doc document
	err := g.db.WithContext(ctx).
		Where("collection = ? AND key = ?", collection, key).
		First(&doc).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return err
	}
	return json.Unmarshal(doc.Data, out)
}

// Set upserts the document at collection/key.
func (g *GormGateway) Set(ctx context.Context, collection, key string, doc any) error {
	return upsert(g.db.WithContext(ctx), collection, key, doc)
}

// Query returns all documents in collection matching every filter.
func (g *GormGateway) Query(ctx context.Context, collection string, filters []Filter, out any) error {
	q := g.db.WithContext(ctx).Model(&document{}).Where("collection = ?", collection)
	for _, f := range filters {
		path := strings.Split(f.Field, ".")
		q = q.Where("data #>> ? = ?", "{"+strings.Join(path, ",")+"}", fmt.Sprintf("%v", f.Value))
	}

	var docs []document
	if err := q.Find(&docs).Error; err != nil {
		return err
	}

	// out is *[]T; decode each row into a new element.
	slice := reflect.ValueOf(out).Elem()
	elemType := slice.Type().Elem()
	for _, d := range docs {
		elem := reflect.New(elemType)
		if err := json.Unmarshal(d.Data, elem.Interface()); err != nil {
			return err
		}
		slice.Set(reflect.Append(slice, elem.Elem()))
	}
	return nil
}

// BatchWrite applies all writes in one transaction.
func (g *GormGateway) BatchWrite(ctx context.Context, writes []Write) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, w := range writes {
			if err := upsert(tx, w.Collection, w.Key, w.Doc); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsert(db *gorm.DB, collection, key string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document %s/%s: %w", collection, key, err)
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data"}),
	}).Create(&document{
		Collection: collection,
		Key:        key,
		Data:       data,
	}).Error
}
