package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/splice/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketSpans    = []byte("spans")
	bucketOverlays = []byte("overlays")
)

// ProjectStore implements domain.ProjectStore using BoltDB.
type ProjectStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// NewProjectStore opens the project database for projectPath under baseDir.
// An empty baseDir gives a memory-only store.
func NewProjectStore(baseDir, projectPath string) (*ProjectStore, error) {
	if baseDir == "" {
		// Memory-only mode (no persistence)
		return &ProjectStore{cache: make(map[string][]byte)}, nil
	}

	dir := baseDir
	if projectPath != "" {
		dir = filepath.Join(baseDir, hashProjectPath(projectPath))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "splice.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketSpans, bucketOverlays} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &ProjectStore{db: db, cache: make(map[string][]byte)}, nil
}

func hashProjectPath(projectPath string) string {
	normalized := filepath.Clean(strings.ToLower(projectPath))
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *ProjectStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *ProjectStore) get(bucket []byte, key string, dest interface{}) bool {
	cacheKey := string(bucket) + ":" + key

	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	// Read from BoltDB
	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *ProjectStore) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
}

func (s *ProjectStore) delete(bucket []byte, key string) error {
	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	delete(s.cache, cacheKey)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

func (s *ProjectStore) deletePrefix(bucket []byte, prefix string) error {
	s.mu.Lock()
	cachePrefix := string(bucket) + ":" + prefix
	for k := range s.cache {
		if strings.HasPrefix(k, cachePrefix) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		prefixBytes := []byte(prefix)
		// Collect first: deleting under a cursor skips keys
		var keys [][]byte
		for k, _ := c.Seek(prefixBytes); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// scan returns every raw value in bucket. Memory-only stores read the cache.
func (s *ProjectStore) scan(bucket []byte) ([][]byte, error) {
	if s.db == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		prefix := string(bucket) + ":"
		var values [][]byte
		for k, v := range s.cache {
			if strings.HasPrefix(k, prefix) {
				values = append(values, v)
			}
		}
		return values, nil
	}

	var values [][]byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			values = append(values, append([]byte(nil), v...))
			return nil
		})
	})
	return values, err
}

// === Spans ===

func (s *ProjectStore) LoadSpans() ([]domain.Span, error) {
	raw, err := s.scan(bucketSpans)
	if err != nil {
		return nil, err
	}
	spans := make([]domain.Span, 0, len(raw))
	for _, data := range raw {
		var span domain.Span
		if err := json.Unmarshal(data, &span); err != nil {
			return nil, fmt.Errorf("decoding span: %w", err)
		}
		spans = append(spans, span)
	}
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Position != spans[j].Position {
			return spans[i].Position < spans[j].Position
		}
		return spans[i].ID < spans[j].ID
	})
	return spans, nil
}

func (s *ProjectStore) GetSpan(id string) (domain.Span, error) {
	var span domain.Span
	if !s.get(bucketSpans, id, &span) {
		return domain.Span{}, fmt.Errorf("span %s: %w", id, domain.ErrNotFound)
	}
	return span, nil
}

func (s *ProjectStore) SaveSpan(span domain.Span) error {
	return s.set(bucketSpans, span.ID, span)
}

// DeleteSpan removes the span and cascades to its overlays
func (s *ProjectStore) DeleteSpan(id string) error {
	if err := s.delete(bucketSpans, id); err != nil {
		return err
	}
	return s.deletePrefix(bucketOverlays, overlayPrefix(id))
}

// === Overlays (hierarchical key: span:{parentID}:overlay:{id}) ===

func overlayPrefix(parentID string) string {
	return "span:" + parentID + ":overlay:"
}

func (s *ProjectStore) LoadOverlays() ([]domain.Overlay, error) {
	raw, err := s.scan(bucketOverlays)
	if err != nil {
		return nil, err
	}
	overlays := make([]domain.Overlay, 0, len(raw))
	for _, data := range raw {
		var o domain.Overlay
		if err := json.Unmarshal(data, &o); err != nil {
			return nil, fmt.Errorf("decoding overlay: %w", err)
		}
		overlays = append(overlays, o)
	}
	sort.SliceStable(overlays, func(i, j int) bool {
		if overlays[i].StartMs != overlays[j].StartMs {
			return overlays[i].StartMs < overlays[j].StartMs
		}
		return overlays[i].ID < overlays[j].ID
	})
	return overlays, nil
}

func (s *ProjectStore) GetOverlay(id string) (domain.Overlay, error) {
	overlays, err := s.LoadOverlays()
	if err != nil {
		return domain.Overlay{}, err
	}
	for _, o := range overlays {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.Overlay{}, fmt.Errorf("overlay %s: %w", id, domain.ErrNotFound)
}

func (s *ProjectStore) SaveOverlay(overlay domain.Overlay) error {
	return s.set(bucketOverlays, overlayPrefix(overlay.ParentID)+overlay.ID, overlay)
}
