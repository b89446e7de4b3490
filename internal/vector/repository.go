// Package vector provides access to the nearest-neighbor index backing
// document retrieval. Collections are named per advisory domain and share
// one client.
package vector

import "context"

// Payload is the schemaless field set stored with an indexed point. Field
// presence is never guaranteed; reads go through the accessor methods, which
// take a fallback.
type Payload map[string]any

// GetString returns the named field as a string, or fallback when the field
// is absent or not a string.
func (p Payload) GetString(key, fallback string) string {
	v, ok := p[key]
	if !ok {
		return fallback
	}
	s, ok := v.(string)
	if !ok {
		return fallback
	}
	return s
}

// GetStringList returns the named field as a string slice. Absent or
// non-list fields yield nil, which renders as an empty join downstream.
func (p Payload) GetStringList(key string) []string {
	v, ok := p[key]
	if !ok {
		return nil
	}
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Document is a single scored match returned by the index, ordered by
// descending similarity. Ties keep the index's own order.
type Document struct {
	ID      string
	Score   float32
	Payload Payload
}

// Point is a document prepared for indexing.
type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// Retriever performs nearest-neighbor search against a named collection.
type Retriever interface {
	// Search returns up to limit documents nearest to vec, best first.
	// An empty result is a valid outcome, not an error.
	Search(ctx context.Context, vec []float32, collection string, limit int) ([]Document, error)
}

// Repository extends Retriever with write access for index maintenance.
type Repository interface {
	Retriever
	// Upsert inserts or replaces points in a collection.
	Upsert(ctx context.Context, collection string, points []Point) error
	// EnsureCollection creates a collection with the given vector size if it
	// does not already exist.
	EnsureCollection(ctx context.Context, collection string, vectorSize uint64) error
	// Close releases resources.
	Close() error
}
