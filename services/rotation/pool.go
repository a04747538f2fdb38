// Package rotation holds provider credential pools and the executor that
// retries a provider call across them.
package rotation

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/gramgyan/backend/services"
)

// Pool is an ordered set of interchangeable API keys for one provider.
//
// The cursor is shared by every request in the process. Rotate is a bare
// atomic increment with no compare-and-swap, so two calls that fail on the
// same key at the same time both advance it and one key gets skipped. That
// skip is accepted: the cursor is a hint about which key to try first.
type Pool struct {
	name   string
	keys   []string
	cursor atomic.Uint64
}

// PoolStatus is a point-in-time view of a pool. It never includes key material.
type PoolStatus struct {
	Name  string `json:"name"`
	Size  int    `json:"size"`
	Index int    `json:"index"`
}

// NewPool builds a pool from keys, dropping blank entries.
func NewPool(name string, keys ...string) *Pool {
	cleaned := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			cleaned = append(cleaned, k)
		}
	}
	return &Pool{name: name, keys: cleaned}
}

// LoadPool builds a pool from a primary key followed by a comma-separated list.
// Either may be empty. Duplicates are kept.
func LoadPool(name, primary, list string) *Pool {
	keys := []string{primary}
	if list != "" {
		keys = append(keys, strings.Split(list, ",")...)
	}
	return NewPool(name, keys...)
}

// Name returns the provider name of the pool.
func (p *Pool) Name() string {
	return p.name
}

// Len returns the number of credentials.
func (p *Pool) Len() int {
	return len(p.keys)
}

// Index returns the cursor position, or 0 for an empty pool.
func (p *Pool) Index() int {
	if len(p.keys) == 0 {
		return 0
	}
	return int(p.cursor.Load() % uint64(len(p.keys)))
}

// Current returns the credential at the cursor.
func (p *Pool) Current() (string, error) {
	key, _, err := p.current()
	return key, err
}

func (p *Pool) current() (string, int, error) {
	if len(p.keys) == 0 {
		return "", 0, services.NewConfigurationError(fmt.Sprintf("no %s credentials configured", p.name))
	}
	i := int(p.cursor.Load() % uint64(len(p.keys)))
	return p.keys[i], i, nil
}

// Rotate advances the cursor by one. It is a no-op for pools of one or zero keys.
func (p *Pool) Rotate() {
	if len(p.keys) <= 1 {
		return
	}
	p.cursor.Add(1)
}

// Status reports size and cursor for diagnostics.
func (p *Pool) Status() PoolStatus {
	return PoolStatus{Name: p.name, Size: len(p.keys), Index: p.Index()}
}
