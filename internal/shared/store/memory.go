package store

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// MemoryGateway is an in-memory Gateway used in tests.
type MemoryGateway struct {
	mu   sync.RWMutex
	docs map[string]map[string][]byte // collection -> key -> payload

	// FailBatch forces the next BatchWrite to fail, for partial-persistence tests.
	FailBatch bool
}

// NewMemoryGateway creates an empty in-memory gateway.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{docs: make(map[string]map[string][]byte)}
}

// Get unmarshals the document at collection/key into out.
func (g *MemoryGateway) Get(ctx context.Context, collection, key string, out any) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	data, ok := g.docs[collection][key]
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(data, out)
}

// Set upserts the document at collection/key.
func (g *MemoryGateway) Set(ctx context.Context, collection, key string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.docs[collection] == nil {
		g.docs[collection] = make(map[string][]byte)
	}
	g.docs[collection][key] = data
	return nil
}

// Query returns all documents in collection matching every filter.
func (g *MemoryGateway) Query(ctx context.Context, collection string, filters []Filter, out any) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	slice := reflect.ValueOf(out).Elem()
	elemType := slice.Type().Elem()

	for _, data := range g.docs[collection] {
		var fields map[string]any
		if err := json.Unmarshal(data, &fields); err != nil {
			return err
		}
		if !matches(fields, filters) {
			continue
		}
		elem := reflect.New(elemType)
		if err := json.Unmarshal(data, elem.Interface()); err != nil {
			return err
		}
		slice.Set(reflect.Append(slice, elem.Elem()))
	}
	return nil
}

// BatchWrite applies all writes, or none when FailBatch is set.
func (g *MemoryGateway) BatchWrite(ctx context.Context, writes []Write) error {
	if g.FailBatch {
		return fmt.Errorf("batch write failed")
	}
	for _, w := range writes {
		if err := g.Set(ctx, w.Collection, w.Key, w.Doc); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of documents in a collection.
func (g *MemoryGateway) Len(collection string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.docs[collection])
}

func matches(fields map[string]any, filters []Filter) bool {
	for _, f := range filters {
		cur := any(fields)
		for _, part := range strings.Split(f.Field, ".") {
			m, ok := cur.(map[string]any)
			if !ok {
				return false
			}
			cur = m[part]
		}
		if canonical(cur) != canonical(f.Value) {
			return false
		}
	}
	return true
}

// canonical renders filter operands the way JSON text does, so numeric ids
// compare equal regardless of the decoded Go type.
func canonical(v any) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}
