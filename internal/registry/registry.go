package registry

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Key = uuid.UUID

// Conn is a live client connection as the registry sees it.
type Conn interface {
	ID() Key
	RemoteAddr() net.Addr
	StartedAt() time.Time
	Close() error
}

type Registry interface {
	Register(conn Conn) (success bool)
	Remove(key Key)
	GetAllFromHost(host string) []Conn
	Len() int
	CloseAll() error
}

type registry struct {
	mu        sync.RWMutex
	byHost    map[string]map[Key]Conn
	hostIndex map[Key]string
}

func NewRegistry() Registry {
	return &registry{
		byHost:    make(map[string]map[Key]Conn),
		hostIndex: make(map[Key]string),
	}
}

// HostOf drops the port so connections from one client share a bucket.
func HostOf(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

func (r *registry) Register(conn Conn) (success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := conn.ID()
	if _, exists := r.hostIndex[key]; exists {
		return false
	}

	host := HostOf(conn.RemoteAddr())
	if r.byHost[host] == nil {
		r.byHost[host] = make(map[Key]Conn)
	}

	r.byHost[host][key] = conn
	r.hostIndex[key] = host
	return true
}

// GetAllFromHost returns the live connections whose remote address has the
// given host, as produced by HostOf.
func (r *registry) GetAllFromHost(host string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m := r.byHost[host]
	if len(m) == 0 {
		return []Conn{}
	}

	conns := make([]Conn, 0, len(m))
	for _, c := range m {
		conns = append(conns, c)
	}
	return conns
}

func (r *registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hostIndex)
}

func (r *registry) Remove(key Key) {
	r.mu.Lock()
	defer r.mu.Unlock()

	host, ok := r.hostIndex[key]
	if !ok {
		return
	}

	delete(r.byHost[host], key)
	if len(r.byHost[host]) == 0 {
		delete(r.byHost, host)
	}
	delete(r.hostIndex, key)
}

// CloseAll closes every registered connection. Entries stay until their
// owners call Remove.
func (r *registry) CloseAll() error {
	r.mu.RLock()
	conns := make([]Conn, 0, len(r.hostIndex))
	for _, m := range r.byHost {
		for _, c := range m {
			conns = append(conns, c)
		}
	}
	r.mu.RUnlock()

	var errs []error
	for _, c := range conns {
		if err := c.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, fmt.Errorf("close %s: %w", c.ID(), err))
		}
	}
	return errors.Join(errs...)
}
