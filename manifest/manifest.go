package manifest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/kbukum/previewkit/storage"
)

// DefaultKey is the storage key the manifest is written under.
const DefaultKey = "manifest.json"

// Status of one input.
type Status string

const (
	StatusCreated         Status = "created"
	StatusFetchFailed     Status = "fetch_failed"
	StatusTransformFailed Status = "transform_failed"
	StatusPersistFailed   Status = "persist_failed"
)

// Entry describes the outcome for one input.
type Entry struct {
	Index  int    `json:"index"`
	URL    string `json:"url"`
	Status Status `json:"status"`

	// Key is the storage key of the thumbnail.
	Key string `json:"key,omitempty"`
	// Bytes is the size of the fetched source.
	Bytes int64 `json:"bytes,omitempty"`
	// Format is the decoded source format.
	Format       string `json:"format,omitempty"`
	SourceWidth  int    `json:"source_width,omitempty"`
	SourceHeight int    `json:"source_height,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`

	// Fingerprint identifies the source bytes.
	Fingerprint string `json:"fingerprint,omitempty"`
	// Checksum covers the stored thumbnail.
	Checksum *Checksum `json:"checksum,omitempty"`

	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// Manifest is the record of one run.
type Manifest struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	Size      string    `json:"size"`
	Entries   []Entry   `json:"entries"`
}

var js = jsoniter.Config{
	EscapeHTML:    false,
	SortMapKeys:   true,
	IndentionStep: 2,
}.Froze()

// Marshal encodes m as indented JSON.
func Marshal(m *Manifest) ([]byte, error) {
	return js.Marshal(m)
}

// Unmarshal decodes a manifest.
func Unmarshal(data []byte) (*Manifest, error) {
	var m Manifest
	if err := js.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: decode: %w", err)
	}
	return &m, nil
}

// Count returns the number of entries with status s.
func (m *Manifest) Count(s Status) int {
	n := 0
	for _, e := range m.Entries {
		if e.Status == s {
			n++
		}
	}
	return n
}

// Duplicates groups the indexes of created entries whose sources share a
// fingerprint. Only groups with more than one index are returned.
func (m *Manifest) Duplicates() map[string][]int {
	groups := make(map[string][]int)
	for _, e := range m.Entries {
		if e.Fingerprint != "" {
			groups[e.Fingerprint] = append(groups[e.Fingerprint], e.Index)
		}
	}
	for fp, idx := range groups {
		if len(idx) < 2 {
			delete(groups, fp)
		}
	}
	return groups
}

// Verify downloads every created thumbnail and compares its checksum. It
// returns the indexes that are missing or do not match.
func (m *Manifest) Verify(ctx context.Context, store storage.ByteClient) ([]int, error) {
	var bad []int
	for _, e := range m.Entries {
		if e.Status != StatusCreated || e.Checksum == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return bad, err
		}
		data, err := store.Download(ctx, e.Key)
		if err != nil {
			if storage.IsNotFound(err) {
				bad = append(bad, e.Index)
				continue
			}
			return bad, fmt.Errorf("manifest: verify %s: %w", e.Key, err)
		}
		if !e.Checksum.Matches(data) {
			bad = append(bad, e.Index)
		}
	}
	return bad, nil
}

// Builder collects entries from concurrent workers.
type Builder struct {
	mu      sync.Mutex
	entries map[int]Entry
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{entries: make(map[int]Entry)}
}

// Add records e, replacing any earlier entry for the same index.
func (b *Builder) Add(e Entry) {
	b.mu.Lock()
	b.entries[e.Index] = e
	b.mu.Unlock()
}

// Len returns the number of recorded entries.
func (b *Builder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Entries returns the recorded entries sorted by index.
func (b *Builder) Entries() []Entry {
	b.mu.Lock()
	out := make([]Entry, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, e)
	}
	b.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Build returns a manifest over the current entries.
func (b *Builder) Build(runID, size string, at time.Time) *Manifest {
	return &Manifest{RunID: runID, CreatedAt: at.UTC(), Size: size, Entries: b.Entries()}
}

// Write marshals m and uploads it under key.
func Write(ctx context.Context, store storage.ByteClient, key string, m *Manifest) error {
	data, err := Marshal(m)
	if err != nil {
		return fmt.Errorf("manifest: encode: %w", err)
	}
	if err := store.Upload(ctx, key, data); err != nil {
		return fmt.Errorf("manifest: write %s: %w", key, err)
	}
	return nil
}

// Read downloads and decodes the manifest stored under key.
func Read(ctx context.Context, store storage.ByteClient, key string) (*Manifest, error) {
	data, err := store.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}
