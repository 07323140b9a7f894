package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// StoredObject is one binary in the gallery store plus the tag/metadata index
// entry the store keeps for it. Tags are flat labels (session_XXXX, type_*);
// metadata carries queryable context such as the access PIN.
type StoredObject struct {
	Key         string            `json:"key"`
	URL         string            `json:"url"`
	Size        int64             `json:"size"`
	ContentType string            `json:"content_type"`
	Tags        []string          `json:"tags"`
	Metadata    map[string]string `json:"metadata"`
	CreatedAt   time.Time         `json:"created_at"`
}

func (o StoredObject) HasTag(tag string) bool {
	for _, t := range o.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ObjectStore is the contract the session layer consumes: put a tagged
// binary, list a folder newest-first, remove by key. The hosted store's
// search-by-tag becomes a client-side scan over List's flat result.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string, tags []string, metadata map[string]string) (StoredObject, error)
	List(ctx context.Context, prefix string, limit int) ([]StoredObject, error)
	Remove(ctx context.Context, keys []string) error
}

// DefaultStore is wired at startup from the configured destination; tests
// swap in a memory store.
var DefaultStore ObjectStore

// MemoryStore keeps objects in process memory. It backs tests and makes the
// grouping and PIN-matching logic exercisable without a bucket.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]StoredObject
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]StoredObject)}
}

func (s *MemoryStore) Put(_ context.Context, key string, data []byte, contentType string, tags []string, metadata map[string]string) (StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj := StoredObject{
		Key:         key,
		URL:         "memory://" + key,
		Size:        int64(len(data)),
		ContentType: contentType,
		Tags:        append([]string(nil), tags...),
		Metadata:    cloneMetadata(metadata),
		CreatedAt:   time.Now(),
	}
	s.objects[key] = obj
	return obj, nil
}

func (s *MemoryStore) List(_ context.Context, prefix string, limit int) ([]StoredObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []StoredObject
	for key, obj := range s.objects {
		if len(prefix) == 0 || strings.HasPrefix(key, prefix) {
			out = append(out, obj)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Remove(_ context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.objects, key)
	}
	return nil
}

// Seed inserts an object verbatim, timestamps included. Test helper.
func (s *MemoryStore) Seed(obj StoredObject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[obj.Key] = obj
}

func cloneMetadata(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
