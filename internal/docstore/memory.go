package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

type memDoc struct {
	fields map[string]json.RawMessage
	seq    int64
}

// Memory is a process-local Store used in development and tests.
type Memory struct {
	mu   sync.RWMutex
	cols map[string]map[string]*memDoc
	seq  int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{cols: make(map[string]map[string]*memDoc)}
}

func (m *Memory) Get(_ context.Context, collection, id string, dst any) error {
	m.mu.RLock()
	doc, ok := m.cols[collection][id]
	var data []byte
	var err error
	if ok {
		data, err = json.Marshal(doc.fields)
	}
	m.mu.RUnlock()

	if !ok {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	return Snapshot{ID: id, Data: data}.Decode(dst)
}

func (m *Memory) Set(_ context.Context, collection, id string, doc any, opts ...SetOption) error {
	_, fields, err := encode(doc)
	if err != nil {
		return err
	}
	o := applySetOptions(opts)

	m.mu.Lock()
	defer m.mu.Unlock()

	col := m.collection(collection)
	existing, ok := col[id]
	if !ok {
		m.seq++
		col[id] = &memDoc{fields: fields, seq: m.seq}
		return nil
	}
	if !o.merge {
		existing.fields = fields
		return nil
	}
	for k, v := range fields {
		existing.fields[k] = v
	}
	return nil
}

func (m *Memory) Insert(_ context.Context, collection, id string, doc any) error {
	_, fields, err := encode(doc)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	col := m.collection(collection)
	if _, ok := col[id]; ok {
		return ErrAlreadyExists
	}
	m.seq++
	col[id] = &memDoc{fields: fields, seq: m.seq}
	return nil
}

func (m *Memory) Create(ctx context.Context, collection string, doc any) (string, error) {
	id := newID()
	if err := m.Insert(ctx, collection, id, doc); err != nil {
		return "", err
	}
	return id, nil
}

func (m *Memory) List(_ context.Context, collection string) ([]Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type entry struct {
		id  string
		doc *memDoc
	}
	entries := make([]entry, 0, len(m.cols[collection]))
	for id, doc := range m.cols[collection] {
		entries = append(entries, entry{id: id, doc: doc})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].doc.seq < entries[j].doc.seq })

	out := make([]Snapshot, 0, len(entries))
	for _, e := range entries {
		data, err := json.Marshal(e.doc.fields)
		if err != nil {
			return nil, fmt.Errorf("encode %s/%s: %w", collection, e.id, err)
		}
		out = append(out, Snapshot{ID: e.id, Data: data})
	}
	return out, nil
}

func (m *Memory) collection(name string) map[string]*memDoc {
	col, ok := m.cols[name]
	if !ok {
		col = make(map[string]*memDoc)
		m.cols[name] = col
	}
	return col
}
