package schema

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// registry caches one binding set per record type (populate-once, read-many).
// Safe for concurrent lookups.
var registry sync.Map // reflect.Type -> *BindingSet[T]

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Register registers an explicit binding set for T.
//
// Registration must happen before the first Resolve for T; once a set is
// cached, registering again returns an error.
func Register[T any](set *BindingSet[T]) error {
	if set == nil {
		return errors.New("schema: binding set must not be nil")
	}
	if _, loaded := registry.LoadOrStore(typeOf[T](), set); loaded {
		return fmt.Errorf("schema: bindings for type %s are already registered", typeOf[T]())
	}
	return nil
}

// MustRegister is like Register but panics on error.
// Intended for package init-time registration.
func MustRegister[T any](set *BindingSet[T]) {
	if err := Register(set); err != nil {
		panic(err)
	}
}

// Resolve returns the binding set for T.
//
// If no set was registered, one is inferred from `csv` struct tags and
// cached, so repeated calls return the same set. A type with zero bound
// fields yields an empty set.
func Resolve[T any]() *BindingSet[T] {
	key := typeOf[T]()
	if v, ok := registry.Load(key); ok {
		return v.(*BindingSet[T])
	}
	v, _ := registry.LoadOrStore(key, inferBindings[T]())
	return v.(*BindingSet[T])
}
