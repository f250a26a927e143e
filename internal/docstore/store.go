// Package docstore is a small document-database contract (get, set with
// optional merge, create with generated id, list) with interchangeable
// PostgreSQL JSONB, MongoDB and in-memory backends.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get when the document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrAlreadyExists is returned by Insert when the id is taken.
var ErrAlreadyExists = errors.New("document already exists")

// ErrNotObject is returned when a document does not encode to a JSON object.
var ErrNotObject = errors.New("document must encode to a JSON object")

// Store is implemented by every backend.
type Store interface {
	// Get decodes the document into dst or returns ErrNotFound.
	Get(ctx context.Context, collection, id string, dst any) error
	// Set writes the document under id. With Merge, top-level fields are
	// merged into an existing document instead of replacing it.
	Set(ctx context.Context, collection, id string, doc any, opts ...SetOption) error
	// Insert stores the document under id only if no document has it yet,
	// returning ErrAlreadyExists otherwise.
	Insert(ctx context.Context, collection, id string, doc any) error
	// Create stores the document under a generated id and returns it.
	Create(ctx context.Context, collection string, doc any) (string, error)
	// List returns every document in the collection.
	List(ctx context.Context, collection string) ([]Snapshot, error)
}

// Snapshot is one stored document.
type Snapshot struct {
	ID   string
	Data json.RawMessage
}

// Decode unmarshals the snapshot data into dst.
func (s Snapshot) Decode(dst any) error {
	if err := json.Unmarshal(s.Data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", s.ID, err)
	}
	return nil
}

type setOptions struct {
	merge bool
}

// SetOption tunes a Set call.
type SetOption func(*setOptions)

// Merge makes Set merge top-level fields into an existing document.
func Merge() SetOption {
	return func(o *setOptions) { o.merge = true }
}

func applySetOptions(opts []SetOption) setOptions {
	var o setOptions
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// encode marshals doc and checks it is a JSON object.
func encode(doc any) ([]byte, map[string]json.RawMessage, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("encode document: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, nil, ErrNotObject
	}
	return data, fields, nil
}

func newID() string {
	return uuid.NewString()
}

func now() time.Time {
	return time.Now().UTC()
}
