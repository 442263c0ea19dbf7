package persistence

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"
)

// Memory is an in-process Gateway. It also counts calls so callers can check
// how often records were written.
type Memory struct {
	mu      sync.Mutex
	records map[string]time.Time
	users   map[string]memoryUser
	adds    map[string]int
	removes map[string]int
	failErr error
}

type memoryUser struct {
	password string
	profile  UserProfile
}

func NewMemory(active ...string) *Memory {
	m := &Memory{
		records: make(map[string]time.Time),
		users:   make(map[string]memoryUser),
		adds:    make(map[string]int),
		removes: make(map[string]int),
	}
	for _, tenant := range active {
		m.records[tenant] = time.Now()
	}
	return m
}

// AddUser registers an account accepted by Authenticate.
func (m *Memory) AddUser(email, password string, profile UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if profile.Email == "" {
		profile.Email = email
	}
	m.users[email] = memoryUser{password: password, profile: profile}
}

// Fail makes every call return err until it is called again with nil.
func (m *Memory) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

func (m *Memory) ListActive(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	return slices.Sorted(maps.Keys(m.records)), nil
}

func (m *Memory) AddRecord(_ context.Context, tenant string, lastConnected time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adds[tenant]++
	if m.failErr != nil {
		return m.failErr
	}
	m.records[tenant] = lastConnected
	return nil
}

func (m *Memory) RemoveRecord(_ context.Context, tenant string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removes[tenant]++
	if m.failErr != nil {
		return m.failErr
	}
	delete(m.records, tenant)
	return nil
}

func (m *Memory) Authenticate(_ context.Context, email, password string) (*UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	u, ok := m.users[email]
	if !ok || u.password != password {
		return nil, ErrInvalidCredentials
	}
	p := u.profile
	return &p, nil
}

// Has reports whether tenant currently has a record.
func (m *Memory) Has(tenant string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[tenant]
	return ok
}

// Adds returns how many AddRecord calls were made for tenant.
func (m *Memory) Adds(tenant string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.adds[tenant]
}

// Removes returns how many RemoveRecord calls were made for tenant.
func (m *Memory) Removes(tenant string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removes[tenant]
}
