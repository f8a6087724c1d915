package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store. Documents are normalized through their
// JSON encoding, so struct json tags play the role firestore tags play for
// FirestoreStore; the two must agree.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]interface{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]map[string]interface{})}
}

type memoryDoc struct {
	id   string
	data map[string]interface{}
}

func (d memoryDoc) ID() string {
	return d.id
}

func (d memoryDoc) DataTo(v interface{}) error {
	raw, err := json.Marshal(d.data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func (s *MemoryStore) NewID(string) string {
	return uuid.NewString()
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	return memoryDoc{id: id, data: copyMap(data)}, nil
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, data interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	normalized, err := normalizeDoc(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collection(collection)[id] = normalized
	return nil
}

func (s *MemoryStore) Create(ctx context.Context, collection, id string, data interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	normalized, err := normalizeDoc(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.collection(collection)
	if _, ok := docs[id]; ok {
		return fmt.Errorf("%w: %s/%s", ErrAlreadyExists, collection, id)
	}
	docs[id] = normalized
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, updates []Update) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.collections[collection][id]
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	next := copyMap(data)
	for _, u := range updates {
		if op, isArray := u.Value.(arrayOp); isArray {
			arr, err := applyArrayOp(next[u.Field], op)
			if err != nil {
				return err
			}
			next[u.Field] = arr
			continue
		}
		v, err := normalizeValue(u.Value)
		if err != nil {
			return err
		}
		next[u.Field] = v
	}
	s.collections[collection][id] = next
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections[collection], id)
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	filters := make([]Filter, 0, len(q.Where))
	for _, f := range q.Where {
		v, err := normalizeValue(f.Value)
		if err != nil {
			return nil, err
		}
		filters = append(filters, Filter{Field: f.Field, Value: v})
	}
	var startAfter interface{}
	if q.OrderBy != "" && q.StartAfter != nil {
		v, err := normalizeValue(q.StartAfter)
		if err != nil {
			return nil, err
		}
		startAfter = v
	}

	s.mu.RLock()
	var matched []memoryDoc
	for id, data := range s.collections[collection] {
		if !matches(data, filters) {
			continue
		}
		if q.OrderBy != "" {
			v, ok := data[q.OrderBy]
			if !ok || v == nil {
				continue
			}
			if startAfter != nil {
				c := compareValues(v, startAfter)
				if (q.Descending && c >= 0) || (!q.Descending && c <= 0) {
					continue
				}
			}
		}
		matched = append(matched, memoryDoc{id: id, data: copyMap(data)})
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if q.OrderBy != "" {
			c := compareValues(matched[i].data[q.OrderBy], matched[j].data[q.OrderBy])
			if c != 0 {
				if q.Descending {
					return c > 0
				}
				return c < 0
			}
		}
		if q.Descending {
			return matched[i].id > matched[j].id
		}
		return matched[i].id < matched[j].id
	})

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	docs := make([]Document, 0, len(matched))
	for _, d := range matched {
		docs = append(docs, d)
	}
	return docs, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// collection must be called with mu held for writing.
func (s *MemoryStore) collection(name string) map[string]map[string]interface{} {
	docs, ok := s.collections[name]
	if !ok {
		docs = make(map[string]map[string]interface{})
		s.collections[name] = docs
	}
	return docs
}

func normalizeDoc(data interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("document must encode to an object: %w", err)
	}
	if out == nil {
		out = make(map[string]interface{})
	}
	return out, nil
}

func normalizeValue(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func applyArrayOp(current interface{}, op arrayOp) ([]interface{}, error) {
	existing, _ := current.([]interface{})
	result := make([]interface{}, 0, len(existing)+len(op.elems))
	result = append(result, existing...)

	for _, e := range op.elems {
		v, err := normalizeValue(e)
		if err != nil {
			return nil, err
		}
		if op.remove {
			kept := result[:0]
			for _, r := range result {
				if !reflect.DeepEqual(r, v) {
					kept = append(kept, r)
				}
			}
			result = kept
			continue
		}
		present := false
		for _, r := range result {
			if reflect.DeepEqual(r, v) {
				present = true
				break
			}
		}
		if !present {
			result = append(result, v)
		}
	}
	return result, nil
}

func matches(data map[string]interface{}, filters []Filter) bool {
	for _, f := range filters {
		v, ok := data[f.Field]
		if !ok || !reflect.DeepEqual(v, f.Value) {
			return false
		}
	}
	return true
}

// compareValues orders JSON-decoded scalars: numbers, strings and booleans
// compare naturally; mixed kinds fall back to their formatted text.
func compareValues(a, b interface{}) int {
	switch av := a.(type) {
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case string:
		if bv, ok := b.(string); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			}
			return 1
		}
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}

func copyMap(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		if arr, ok := v.([]interface{}); ok {
			v = append([]interface{}(nil), arr...)
		}
		dst[k] = v
	}
	return dst
}
