// Package indexer loads advisory documents into the vector index and, for
// course records, into the prerequisite graph.
package indexer

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/iitdbuddy/buddy/internal/graph"
	"github.com/iitdbuddy/buddy/internal/llm"
	"github.com/iitdbuddy/buddy/internal/vector"
)

// embedBatchSize bounds one embedding request.
const embedBatchSize = 32

// Indexer embeds document payloads and upserts them into a collection.
type Indexer struct {
	provider   llm.Provider
	repo       vector.Repository
	graph      graph.Repository // nil disables prerequisite edges
	vectorSize uint64
	logger     *slog.Logger
}

// New creates an Indexer. graphRepo may be nil when no prerequisite graph
// is configured.
func New(provider llm.Provider, repo vector.Repository, graphRepo graph.Repository, vectorSize uint64, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		provider:   provider,
		repo:       repo,
		graph:      graphRepo,
		vectorSize: vectorSize,
		logger:     logger,
	}
}

// IndexFile reads a JSON array of payload objects from path and indexes it
// into collection. Each object may carry a "content" field used as the
// embedding text; otherwise the string fields are joined in key order.
// Returns the number of points written.
func (ix *Indexer) IndexFile(ctx context.Context, collection, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read documents: %w", err)
	}

	var payloads []vector.Payload
	if err := json.Unmarshal(data, &payloads); err != nil {
		return 0, fmt.Errorf("parse documents: %w", err)
	}

	return ix.Index(ctx, collection, payloads)
}

// Index embeds payloads and upserts them into collection, creating the
// collection if needed.
func (ix *Indexer) Index(ctx context.Context, collection string, payloads []vector.Payload) (int, error) {
	if len(payloads) == 0 {
		return 0, nil
	}

	if err := ix.repo.EnsureCollection(ctx, collection, ix.vectorSize); err != nil {
		return 0, err
	}

	total := 0
	for start := 0; start < len(payloads); start += embedBatchSize {
		end := min(start+embedBatchSize, len(payloads))
		batch := payloads[start:end]

		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = embeddingText(p)
		}

		vecs, err := ix.provider.Embed(ctx, texts)
		if err != nil {
			return total, fmt.Errorf("embedding batch: %w", err)
		}
		if len(vecs) != len(texts) {
			return total, fmt.Errorf("embedding count mismatch: got %d, want %d", len(vecs), len(texts))
		}

		points := make([]vector.Point, len(batch))
		for i, p := range batch {
			points[i] = vector.Point{ID: newUUID(), Vector: vecs[i], Payload: p}
		}
		if err := ix.repo.Upsert(ctx, collection, points); err != nil {
			return total, fmt.Errorf("upsert batch: %w", err)
		}
		total += len(points)

		if ix.graph != nil {
			if err := ix.storePrerequisites(ctx, batch); err != nil {
				return total, err
			}
		}
	}

	ix.logger.Info("indexed documents", "collection", collection, "count", total)
	return total, nil
}

// storePrerequisites records course payloads in the prerequisite graph.
// Payloads without a course_code are skipped.
func (ix *Indexer) storePrerequisites(ctx context.Context, payloads []vector.Payload) error {
	for _, p := range payloads {
		code := p.GetString("course_code", "")
		if code == "" {
			continue
		}
		course := graph.Course{Code: code, Title: p.GetString("title", "")}
		if err := ix.graph.StoreCourse(ctx, course, p.GetStringList("prerequisites")); err != nil {
			return fmt.Errorf("store prerequisites for %s: %w", code, err)
		}
	}
	return nil
}

// embeddingText derives the text to embed from a payload: the "content"
// field when present, otherwise all string fields joined in key order.
func embeddingText(p vector.Payload) string {
	if content := p.GetString("content", ""); content != "" {
		return content
	}

	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		if s := p.GetString(k, ""); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func newUUID() string {
	// Minimal UUIDv4 generator to avoid an external dependency.
	var b [16]byte
	_, _ = rand.Read(b[:])
	b[6] = (b[6] & 0x0f) | 0x40 // version 4
	b[8] = (b[8] & 0x3f) | 0x80 // variant 10

	var out [36]byte
	hex.Encode(out[0:8], b[0:4])
	out[8] = '-'
	hex.Encode(out[9:13], b[4:6])
	out[13] = '-'
	hex.Encode(out[14:18], b[6:8])
	out[18] = '-'
	hex.Encode(out[19:23], b[8:10])
	out[23] = '-'
	hex.Encode(out[24:36], b[10:16])
	return string(out[:])
}
