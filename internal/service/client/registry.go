package client

import (
	"errors"
	"sync"
)

var (
	// ErrClientNotFound reports a webhook or admin call routed to an
	// unregistered client.
	ErrClientNotFound = errors.New("client not found")
	// ErrClientExists rejects registering a second client under one ID.
	ErrClientExists = errors.New("client already registered")
	// ErrRegistryFull rejects registration past the configured cap.
	ErrRegistryFull = errors.New("client registry is full")
)

// Registry is the keyed client collection webhooks route through. Lookups
// vastly outnumber registrations, so reads share an RWMutex.
type Registry struct {
	max int

	mu      sync.RWMutex
	clients map[string]*Client
}

// NewRegistry creates an empty registry. max <= 0 disables the cap.
func NewRegistry(max int) *Registry {
	return &Registry{max: max, clients: make(map[string]*Client)}
}

// Register adds a client under its ID.
func (r *Registry) Register(c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[c.ID()]; ok {
		return ErrClientExists
	}
	if r.max > 0 && len(r.clients) >= r.max {
		return ErrRegistryFull
	}
	r.clients[c.ID()] = c
	return nil
}

// Unregister removes a client and stops its session sweeper.
func (r *Registry) Unregister(clientID string) error {
	r.mu.Lock()
	c, ok := r.clients[clientID]
	if ok {
		delete(r.clients, clientID)
	}
	r.mu.Unlock()

	if !ok {
		return ErrClientNotFound
	}
	c.Close()
	return nil
}

// Get returns the client registered under clientID.
func (r *Registry) Get(clientID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[clientID]
	return c, ok
}

// List snapshots the registered clients.
func (r *Registry) List() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

// Close stops every registered client's background work.
func (r *Registry) Close() {
	for _, c := range r.List() {
		c.Close()
	}
}
