// Package eventemitter provides a typed event emitter that allows
// registering synchronous listeners and emitting a single event type.
//
// Each listener is called synchronously when an event is emitted. If you
// want asynchronous (non-blocking) listeners, wrap your listener in a go
// routine.
//
// Example:
//
//	e := eventemitter.New[string]()
//	token := e.AddListener(func(ctx context.Context, event string) { fmt.Println(event) })
//	e.Emit(context.Background(), "hello") // Output: hello
//	e.RemoveListener(token)
package eventemitter

import (
	"context"
	"math/rand"
	"slices"
	"sync"
)

// ListenerToken is the token returned when a listener is added.
type ListenerToken string

func generateToken() ListenerToken {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	key := make([]byte, 6)
	for i := range key {
		key[i] = letters[rand.Intn(len(letters))]
	}
	return ListenerToken(key)
}

// Listener handles an emitted event.
type Listener[E any] func(ctx context.Context, event E)

type registration[E any] struct {
	token    ListenerToken
	listener Listener[E]
}

// Emitter dispatches events of type E to registered listeners.
// It is safe for concurrent use.
type Emitter[E any] struct {
	mu        sync.RWMutex
	listeners []registration[E]
}

// New creates a new Emitter instance.
func New[E any]() *Emitter[E] {
	return &Emitter[E]{}
}

// AddListener registers a listener and returns its removal token.
func (e *Emitter[E]) AddListener(listener Listener[E]) ListenerToken {
	e.mu.Lock()
	defer e.mu.Unlock()

	token := generateToken()
	e.listeners = append(e.listeners, registration[E]{
		token:    token,
		listener: listener,
	})
	return token
}

// RemoveListener removes a listener by token.
func (e *Emitter[E]) RemoveListener(token ListenerToken) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, reg := range e.listeners {
		if reg.token == token {
			e.listeners = slices.Delete(e.listeners, i, i+1)
			return true
		}
	}
	return false
}

// RemoveAllListeners removes all registered listeners.
func (e *Emitter[E]) RemoveAllListeners() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.listeners) == 0 {
		return false
	}
	e.listeners = nil
	return true
}

// Emit calls each listener synchronously with the event.
// It reports whether any listener was called.
func (e *Emitter[E]) Emit(ctx context.Context, event E) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.listeners) == 0 {
		return false
	}
	for _, reg := range e.listeners {
		reg.listener(ctx, event)
	}
	return true
}
