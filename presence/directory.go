// Package presence tracks which users have a live connection and pushes
// relayed messages to them. Delivery is best effort: the stored message is
// the source of truth and a push is only a latency shortcut.
package presence

import (
	"sync"

	"chatty/models"
)

// Conn is a live connection that can receive pushed events
type Conn interface {
	// ID identifies the connection; unique per accepted socket
	ID() string
	// Push queues event for delivery without blocking. It reports false
	// when the event was dropped.
	Push(event models.SocketEvent) bool
}

// Directory maps user IDs to their most recently announced connection
type Directory struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

func NewDirectory() *Directory {
	return &Directory{conns: make(map[string]Conn)}
}

// Announce registers conn for userID, replacing any earlier connection
func (d *Directory) Announce(userID string, conn Conn) {
	d.mu.Lock()
	d.conns[userID] = conn
	d.mu.Unlock()
}

// Lookup returns the live connection for userID, if any
func (d *Directory) Lookup(userID string) (Conn, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	conn, ok := d.conns[userID]
	return conn, ok
}

// Remove deletes the entry for userID only if it still points at conn.
// A connection closing after its user reconnected leaves the newer entry alone.
func (d *Directory) Remove(userID string, conn Conn) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	current, ok := d.conns[userID]
	if !ok || current.ID() != conn.ID() {
		return false
	}
	delete(d.conns, userID)
	return true
}

// Forget drops userID regardless of which connection it points at
func (d *Directory) Forget(userID string) {
	d.mu.Lock()
	delete(d.conns, userID)
	d.mu.Unlock()
}

// Online reports whether userID has a live connection
func (d *Directory) Online(userID string) bool {
	_, ok := d.Lookup(userID)
	return ok
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.conns)
}
