package db

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"wolontariat/internal/apperr"

	"go.mongodb.org/mongo-driver/bson"
)

// Store operations, as passed to a FaultFunc
const (
	OpGet             = "get"
	OpCreate          = "create"
	OpUpdate          = "update"
	OpUpdateIfVersion = "updateIfVersion"
	OpQuery           = "query"
)

// FaultFunc lets tests fail selected operations. A non-nil return aborts the
// operation with that error before it touches any data.
type FaultFunc func(op, collection, id string) error

// MemStore is an in-process Store. Documents are kept BSON-encoded so callers
// never share memory with stored state, and writes go through the same
// version check as MongoStore.
type MemStore struct {
	mu          sync.Mutex
	collections map[string]*memCollection
	fault       FaultFunc
}

type memCollection struct {
	docs  map[string]bson.Raw
	order []string
}

// NewMemStore creates an empty store
func NewMemStore() *MemStore {
	return &MemStore{collections: make(map[string]*memCollection)}
}

// SetFault installs f as the fault hook; nil removes it
func (s *MemStore) SetFault(f FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = f
}

func (s *MemStore) collection(name string) *memCollection {
	c, ok := s.collections[name]
	if !ok {
		c = &memCollection{docs: make(map[string]bson.Raw)}
		s.collections[name] = c
	}
	return c
}

func (s *MemStore) check(ctx context.Context, op, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}
	if s.fault != nil {
		return s.fault(op, collection, id)
	}
	return nil
}

func (s *MemStore) Get(ctx context.Context, collection, id string, out interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx, OpGet, collection, id); err != nil {
		return err
	}
	raw, ok := s.collection(collection).docs[id]
	if !ok {
		return apperr.ErrNotFound
	}
	return bson.Unmarshal(raw, out)
}

func (s *MemStore) Create(ctx context.Context, collection string, doc interface{}) error {
	data, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	raw := bson.Raw(data)
	idVal, err := raw.LookupErr("_id")
	if err != nil {
		return fmt.Errorf("document has no _id: %w", err)
	}
	id, ok := idVal.StringValueOK()
	if !ok || id == "" {
		return fmt.Errorf("document _id must be a non-empty string")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx, OpCreate, collection, id); err != nil {
		return err
	}
	c := s.collection(collection)
	if _, exists := c.docs[id]; exists {
		return apperr.ErrDuplicate
	}
	c.docs[id] = raw
	c.order = append(c.order, id)
	return nil
}

func (s *MemStore) Update(ctx context.Context, collection, id string, fields bson.M) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx, OpUpdate, collection, id); err != nil {
		return err
	}
	return s.apply(collection, id, nil, fields)
}

func (s *MemStore) UpdateIfVersion(ctx context.Context, collection, id string, version int64, fields bson.M) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx, OpUpdateIfVersion, collection, id); err != nil {
		return err
	}
	return s.apply(collection, id, &version, fields)
}

// apply sets fields on the stored document and bumps its version. Callers hold mu.
func (s *MemStore) apply(collection, id string, expected *int64, fields bson.M) error {
	c := s.collection(collection)
	raw, ok := c.docs[id]
	if !ok {
		return apperr.ErrNotFound
	}

	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode stored document: %w", err)
	}

	current := versionOf(doc)
	if expected != nil && current != *expected {
		return apperr.ErrConflict
	}

	for k, v := range fields {
		doc[k] = v
	}
	doc[VersionField] = current + 1

	data, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	c.docs[id] = data
	return nil
}

func (s *MemStore) Query(ctx context.Context, collection string, filter bson.M, out interface{}) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("query result must be a pointer to a slice, got %T", out)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx, OpQuery, collection, ""); err != nil {
		return err
	}

	slice := rv.Elem()
	elemType := slice.Type().Elem()
	result := reflect.MakeSlice(slice.Type(), 0, 0)

	c := s.collection(collection)
	for _, id := range c.order {
		raw := c.docs[id]
		var doc bson.M
		if err := bson.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("decode stored document: %w", err)
		}
		if !matches(doc, filter) {
			continue
		}
		item := reflect.New(elemType)
		if err := bson.Unmarshal(raw, item.Interface()); err != nil {
			return fmt.Errorf("decode document %s: %w", id, err)
		}
		result = reflect.Append(result, item.Elem())
	}
	slice.Set(result)
	return nil
}

func versionOf(doc bson.M) int64 {
	switch v := doc[VersionField].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func matches(doc bson.M, filter bson.M) bool {
	for key, want := range filter {
		got, ok := doc[key]
		if !ok {
			return false
		}
		if arr, isArr := got.(bson.A); isArr {
			found := false
			for _, el := range arr {
				if valuesEqual(el, want) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
			continue
		}
		if !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

// valuesEqual compares a decoded BSON value with a filter value, ignoring the
// difference between named and plain strings and between numeric widths.
func valuesEqual(a, b interface{}) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() {
		return !va.IsValid() && !vb.IsValid()
	}
	switch {
	case va.Kind() == reflect.String && vb.Kind() == reflect.String:
		return va.String() == vb.String()
	case isNumber(va) && isNumber(vb):
		return toFloat(va) == toFloat(vb)
	case va.Kind() == reflect.Bool && vb.Kind() == reflect.Bool:
		return va.Bool() == vb.Bool()
	}
	return reflect.DeepEqual(a, b)
}

func isNumber(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func toFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	default:
		return v.Float()
	}
}
