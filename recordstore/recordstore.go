// Package recordstore provides a reusable document store for typed record
// lists. Records are serialized to delimited-text documents by the codec and
// persisted through the datastore client under structured document keys.
package recordstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/holmberd/go-csvbind/codec"
	"github.com/holmberd/go-csvbind/datastore"
	"github.com/holmberd/go-csvbind/dockey"
	"github.com/holmberd/go-csvbind/eventemitter"
	"github.com/holmberd/go-csvbind/schema"
)

// Event describes a store mutation delivered to listeners.
type Event struct {
	Name    string // Document name.
	Records int    // Number of records written; zero for removals.
}

// NameCursor is a cursor for paginated document name retrieval from a store.
type NameCursor struct {
	Cursor uint64
	Names  []string
}

// Store provides a reusable document store for one record type.
// A store is safe for concurrent use.
type Store[T any] struct {
	kind      string // Required logical document kind.
	namespace string // Optional key namespace.
	dsClient  *datastore.Client
	codec     *codec.Codec[T]
	onWritten *eventemitter.Emitter[Event]
	onRemoved *eventemitter.Emitter[Event]
}

// New creates a new instance of a store. The record codec is resolved once
// from the type's registered or inferred bindings.
func New[T any](
	kind string,
	namespace string,
	dsClient *datastore.Client,
	opts codec.Options,
) (*Store[T], error) {
	return NewWithBindings[T](kind, namespace, dsClient, schema.Resolve[T](), opts)
}

// NewWithBindings creates a store using an explicit binding set.
func NewWithBindings[T any](
	kind string,
	namespace string,
	dsClient *datastore.Client,
	set *schema.BindingSet[T],
	opts codec.Options,
) (*Store[T], error) {
	if kind == "" {
		return nil, errors.New("recordstore: document kind must not be empty")
	}
	if err := dockey.ValidateFragment(kind); err != nil {
		return nil, err
	}
	if namespace != "" {
		if err := dockey.ValidateFragment(namespace); err != nil {
			return nil, err
		}
	}
	if dsClient == nil {
		return nil, errors.New("recordstore: datastore client must not be nil")
	}
	return &Store[T]{
		kind:      kind,
		namespace: namespace,
		dsClient:  dsClient,
		codec:     codec.NewWithBindings(set, opts),
		onWritten: eventemitter.New[Event](),
		onRemoved: eventemitter.New[Event](),
	}, nil
}

// Kind returns the store's document kind.
func (s *Store[T]) Kind() string {
	return s.kind
}

// Namespace returns the store's key namespace.
func (s *Store[T]) Namespace() string {
	return s.namespace
}

// Codec returns the store's record codec.
func (s *Store[T]) Codec() *codec.Codec[T] {
	return s.codec
}

// OnWritten returns the emitter notified after a document write.
func (s *Store[T]) OnWritten() *eventemitter.Emitter[Event] {
	return s.onWritten
}

// OnRemoved returns the emitter notified after a document removal.
func (s *Store[T]) OnRemoved() *eventemitter.Emitter[Event] {
	return s.onRemoved
}

func (s *Store[T]) key(name string) (*dockey.Key, error) {
	key, err := dockey.New(s.kind, name, s.namespace)
	if err != nil {
		return nil, fmt.Errorf("recordstore: %w", err)
	}
	return key, nil
}

// Write serializes the records and stores them as the named document,
// replacing any previous content. An expiration of zero persists the
// document without a TTL.
func (s *Store[T]) Write(
	ctx context.Context,
	name string,
	records []T,
	expiration time.Duration,
) error {
	key, err := s.key(name)
	if err != nil {
		return err
	}
	if err := s.dsClient.Put(ctx, key, s.codec.Marshal(records), expiration); err != nil {
		return err
	}
	s.onWritten.Emit(ctx, Event{Name: name, Records: len(records)})
	return nil
}

// Read retrieves the named document and decodes it into a record list.
// datastore.ErrDocumentNotFound is returned if the document does not exist.
func (s *Store[T]) Read(ctx context.Context, name string) ([]T, error) {
	key, err := s.key(name)
	if err != nil {
		return nil, err
	}
	doc, err := s.dsClient.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.codec.Unmarshal(doc)
}

// Exists reports whether the named document exists in the store.
func (s *Store[T]) Exists(ctx context.Context, name string) (bool, error) {
	key, err := s.key(name)
	if err != nil {
		return false, err
	}
	return s.dsClient.Exists(ctx, key)
}

// Remove deletes the named document from the store.
func (s *Store[T]) Remove(ctx context.Context, name string) error {
	key, err := s.key(name)
	if err != nil {
		return err
	}
	if err := s.dsClient.Delete(ctx, key); err != nil {
		return err
	}
	s.onRemoved.Emit(ctx, Event{Name: name})
	return nil
}

// RemoveAll deletes every document of the store's kind within its namespace.
func (s *Store[T]) RemoveAll(ctx context.Context) error {
	match, err := dockey.Match(s.kind, s.namespace)
	if err != nil {
		return fmt.Errorf("recordstore: %w", err)
	}
	if err := s.dsClient.DeleteMatch(ctx, match); err != nil {
		return err
	}
	s.onRemoved.Emit(ctx, Event{})
	return nil
}

// Names returns the names of all documents of the store's kind within its
// namespace. Order is not guaranteed.
func (s *Store[T]) Names(ctx context.Context) ([]string, error) {
	match, err := dockey.Match(s.kind, s.namespace)
	if err != nil {
		return nil, fmt.Errorf("recordstore: %w", err)
	}
	keys, err := s.dsClient.ScanKeys(ctx, match)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(keys))
	for i, key := range keys {
		names[i] = key.Name()
	}
	return names, nil
}

// NamesWithCursor retrieves document names using cursor pagination.
// A nextCursor of zero marks the end of the iteration.
func (s *Store[T]) NamesWithCursor(
	ctx context.Context,
	cursor uint64,
	limit int,
) (*NameCursor, error) {
	match, err := dockey.Match(s.kind, s.namespace)
	if err != nil {
		return nil, fmt.Errorf("recordstore: %w", err)
	}
	keys, nextCursor, err := s.dsClient.ScanKeysWithCursor(ctx, cursor, limit, match)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(keys))
	for i, key := range keys {
		names[i] = key.Name()
	}
	return &NameCursor{Cursor: nextCursor, Names: names}, nil
}
