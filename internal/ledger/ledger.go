// Package ledger implements the bounded at-most-once gate that keeps a
// message from being forwarded twice.
package ledger

import (
	"context"
	"fmt"
	"sync"
)

// DefaultCapacity is used when no capacity is configured.
const DefaultCapacity = 1000

// Namespaces separate inbound mail from processed replies.
const (
	NamespaceMessages = "messages"
	NamespaceReplies  = "replies"
)

// Backend persists ledger entries so membership survives restarts.
type Backend interface {
	LoadLedger(ctx context.Context, namespace string) ([]string, error)
	AppendLedger(ctx context.Context, namespace, id string, capacity int) error
}

// Ledger is a FIFO-evicting set of processed message ids. Once the ledger
// is full the oldest ids are dropped, so the guarantee is "no duplicate
// within the retention window".
type Ledger struct {
	backend   Backend
	index     map[string]struct{}
	claimed   map[string]struct{}
	namespace string
	order     []string
	capacity  int
	mu        sync.Mutex
}

// New loads the ledger for namespace from backend.
func New(ctx context.Context, backend Backend, namespace string, capacity int) (*Ledger, error) {
	l := NewMemory(capacity)
	l.backend = backend
	l.namespace = namespace

	if backend == nil {
		return l, nil
	}

	ids, err := backend.LoadLedger(ctx, namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s ledger: %w", namespace, err)
	}
	for _, id := range ids {
		l.insert(id)
	}
	return l, nil
}

// NewMemory creates a ledger that is not persisted.
func NewMemory(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ledger{
		capacity: capacity,
		index:    make(map[string]struct{}, capacity),
		claimed:  make(map[string]struct{}),
		order:    make([]string, 0, capacity),
	}
}

// IsProcessed reports whether id has been recorded.
func (l *Ledger) IsProcessed(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.index[id]
	return ok
}

// Claim reserves id for processing. It returns false when id is already
// processed or claimed by another caller, which makes check-and-reserve a
// single atomic step.
func (l *Ledger) Claim(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.index[id]; ok {
		return false
	}
	if _, ok := l.claimed[id]; ok {
		return false
	}
	l.claimed[id] = struct{}{}
	return true
}

// Release drops a claim without recording id.
func (l *Ledger) Release(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.claimed, id)
}

// MarkProcessed records id. The in-memory record is kept even when
// persisting fails, so the current run still never repeats id.
func (l *Ledger) MarkProcessed(ctx context.Context, id string) error {
	l.mu.Lock()
	delete(l.claimed, id)
	added := l.insert(id)
	l.mu.Unlock()

	if !added || l.backend == nil {
		return nil
	}
	if err := l.backend.AppendLedger(ctx, l.namespace, id, l.capacity); err != nil {
		return fmt.Errorf("failed to persist ledger entry %s: %w", id, err)
	}
	return nil
}

// Len returns the number of recorded ids.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.order)
}

// Capacity returns the configured capacity.
func (l *Ledger) Capacity() int {
	return l.capacity
}

// insert must be called with mu held.
func (l *Ledger) insert(id string) bool {
	if id == "" {
		return false
	}
	if _, ok := l.index[id]; ok {
		return false
	}
	l.order = append(l.order, id)
	l.index[id] = struct{}{}
	for len(l.order) > l.capacity {
		delete(l.index, l.order[0])
		l.order = l.order[1:]
	}
	return true
}
