package simulator

import (
	"sync"

	"github.com/dmitrymomot/botfleet/svc/client"
)

// Fleet builds simulated drivers and keeps track of them by tenant.
type Fleet struct {
	store client.CredentialStore

	mu      sync.Mutex
	drivers map[string]*Driver
	created map[string]int
}

func NewFleet(store client.CredentialStore) *Fleet {
	return &Fleet{
		store:   store,
		drivers: make(map[string]*Driver),
		created: make(map[string]int),
	}
}

// Factory returns a client.Factory producing simulated drivers.
func (f *Fleet) Factory() client.Factory {
	return func(tenant string) (client.Driver, error) {
		d := New(tenant, f.store)

		f.mu.Lock()
		f.drivers[tenant] = d
		f.created[tenant]++
		f.mu.Unlock()

		return d, nil
	}
}

// Driver returns the most recent driver built for tenant.
func (f *Fleet) Driver(tenant string) (*Driver, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drivers[tenant]
	return d, ok
}

// Created returns how many drivers were built for tenant.
func (f *Fleet) Created(tenant string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created[tenant]
}
