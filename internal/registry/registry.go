// File: internal/registry/registry.go
package registry

import (
	"sync"

	"github.com/google/uuid"

	"github.com/xkilldash9x/scalpel-locator/internal/dom"
)

// Registry maps nodes to stable uids and back, so that matched nodes can be
// returned to callers that hold no live references.
type Registry struct {
	mu     sync.RWMutex
	byUID  map[string]dom.Node
	byNode map[dom.Node]string
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		byUID:  make(map[string]dom.Node),
		byNode: make(map[dom.Node]string),
	}
}

// UID returns the uid of n, registering it on first sight. A nil node has the
// empty uid.
func (r *Registry) UID(n dom.Node) string {
	if n == nil {
		return ""
	}
	r.mu.RLock()
	uid, ok := r.byNode[n]
	r.mu.RUnlock()
	if ok {
		return uid
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another caller may have registered n in between.
	if uid, ok := r.byNode[n]; ok {
		return uid
	}
	uid = uuid.New().String()
	r.byNode[n] = uid
	r.byUID[uid] = n
	return uid
}

// UIDs maps nodes to uids, preserving order.
func (r *Registry) UIDs(nodes []dom.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = r.UID(n)
	}
	return out
}

// Lookup returns the node registered under uid.
func (r *Registry) Lookup(uid string) (dom.Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.byUID[uid]
	return n, ok
}

// Len is the number of registered nodes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUID)
}

// Reset forgets every registration, typically after the page navigated.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUID = make(map[string]dom.Node)
	r.byNode = make(map[dom.Node]string)
}
