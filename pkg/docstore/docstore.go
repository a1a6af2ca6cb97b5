// Package docstore persists collections of records as whole JSON documents.
//
// A collection is read in full on every access and rewritten in full on every
// mutation. Mutations go through Backend.UpdateDocument, which runs the
// load-modify-save cycle under a per-collection lock. FileBackend holds that
// lock in process memory; GormBackend holds it in the database, so several
// processes may share one SQL store.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

var (
	ErrNotFound = errors.New("docstore: record not found")
	ErrCorrupt  = errors.New("docstore: corrupt document")
)

// Member is one top-level entry of a collection document, in stored order.
type Member struct {
	Key   string
	Value json.RawMessage
}

// UpdateFunc receives the current members of a collection and returns the
// members to store. write=false leaves the document untouched.
type UpdateFunc func(members []Member) (out []Member, write bool, err error)

// Backend reads and writes whole collection documents.
//
// ReadDocument returns (nil, nil) when the collection has never been written.
// UpdateDocument must not interleave with another UpdateDocument or
// WriteDocument on the same collection.
type Backend interface {
	ReadDocument(ctx context.Context, collection string) ([]Member, error)
	WriteDocument(ctx context.Context, collection string, members []Member) error
	UpdateDocument(ctx context.Context, collection string, fn UpdateFunc) error
}

// Quarantiner is implemented by backends that can move a corrupt document
// aside so the collection can start over empty.
type Quarantiner interface {
	Quarantine(ctx context.Context, collection string) (string, error)
}

// Specification selects records in List.
type Specification[T any] interface {
	IsSatisfiedBy(record T) bool
}

// locks hands out one mutex per collection name.
type locks struct {
	mu     sync.Mutex
	byName map[string]*sync.Mutex
}

func (l *locks) lock(collection string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.byName == nil {
		l.byName = make(map[string]*sync.Mutex)
	}
	m, ok := l.byName[collection]
	if !ok {
		m = &sync.Mutex{}
		l.byName[collection] = m
	}
	return m
}
