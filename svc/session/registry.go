package session

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/botfleet/pkg/logger"
	"github.com/dmitrymomot/botfleet/pkg/qrcode"
	"github.com/dmitrymomot/botfleet/svc/autoreply"
	"github.com/dmitrymomot/botfleet/svc/client"
	"github.com/dmitrymomot/botfleet/svc/notify"
	"github.com/dmitrymomot/botfleet/svc/persistence"
)

// Publisher delivers lifecycle notifications. *notify.Channel satisfies it.
type Publisher interface {
	Publish(ctx context.Context, ev notify.Event) error
}

// Renderer turns a raw challenge into a displayable artifact.
type Renderer interface {
	DataURL(content string) (string, error)
}

// Responder answers inbound messages. *autoreply.Responder satisfies it.
type Responder interface {
	Matches(body string) bool
	Reply(ctx context.Context, s autoreply.Sender, to string) (int, error)
}

type config struct {
	factory          client.Factory
	gateway          persistence.Gateway
	publisher        Publisher
	renderer         Renderer
	responder        Responder
	credentials      client.CredentialStore
	challengeTimeout time.Duration
	logger           *slog.Logger
	now              func() time.Time
}

type Option func(*config)

func WithResponder(r Responder) Option {
	return func(c *config) {
		c.responder = r
	}
}

func WithRenderer(r Renderer) Option {
	return func(c *config) {
		if r != nil {
			c.renderer = r
		}
	}
}

// WithCredentialStore enables PurgeCredentials.
func WithCredentialStore(s client.CredentialStore) Option {
	return func(c *config) {
		c.credentials = s
	}
}

// WithChallengeTimeout destroys handles that stay in awaiting_challenge
// longer than d. Zero disables the timeout.
func WithChallengeTimeout(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.challengeTimeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// Registry holds at most one live Handle per tenant.
// All methods are safe for concurrent use.
type Registry struct {
	cfg *config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	closed  bool
	handles map[string]*Handle

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewRegistry creates a registry building drivers with factory, recording
// ready sessions through gateway and announcing transitions on publisher.
func NewRegistry(factory client.Factory, gateway persistence.Gateway, publisher Publisher, opts ...Option) (*Registry, error) {
	if factory == nil || gateway == nil || publisher == nil {
		return nil, ErrMissingDependency
	}

	cfg := &config{
		factory:   factory,
		gateway:   gateway,
		publisher: publisher,
		renderer:  qrcode.NewRenderer(256),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
		handles: make(map[string]*Handle),
		locks:   make(map[string]*sync.Mutex),
	}, nil
}

// Request returns the current state of tenant's handle without creating one.
func (r *Registry) Request(_ context.Context, tenant string) (Info, error) {
	if err := ValidateTenant(tenant); err != nil {
		return Info{}, err
	}
	h := r.get(tenant)
	if h == nil {
		return Info{}, ErrNotFound
	}
	return h.Snapshot(), nil
}

// Get returns tenant's live handle.
func (r *Registry) Get(tenant string) (*Handle, bool) {
	h := r.get(tenant)
	return h, h != nil
}

// Create starts a new session for tenant. It fails with ErrAlreadyExists
// while a live handle is registered. The adapter is initialized
// asynchronously; progress is reported through the publisher.
func (r *Registry) Create(ctx context.Context, tenant string) (*Handle, error) {
	if err := ValidateTenant(tenant); err != nil {
		return nil, err
	}
	if r.isClosed() {
		return nil, ErrRegistryClosed
	}

	unlock := r.lock(tenant)
	defer unlock()

	if h := r.get(tenant); h != nil && h.State().Live() {
		return nil, ErrAlreadyExists
	}

	driver, err := r.cfg.factory(tenant)
	if err != nil {
		return nil, errors.Join(ErrCreateFailed, err)
	}

	h := &Handle{
		tenant:    tenant,
		createdAt: r.cfg.now(),
		adapter:   client.NewAdapter(tenant, driver),
	}
	h.pending.Store(true)
	defer h.pending.Store(false)
	h.ctrl = newController(h, r.cfg, r.evict)

	// Close may have started while the factory ran. Checking under r.mu
	// orders this insert against Close's snapshot of the handles.
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		h.ctrl.initCancel()
		h.ctrl.replyCancel()
		if err := h.adapter.Destroy(context.WithoutCancel(ctx)); err != nil {
			r.cfg.logger.WarnContext(logger.WithTenant(ctx, tenant), "failed to destroy client", logger.Error(err))
		}
		return nil, ErrRegistryClosed
	}
	r.handles[tenant] = h
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		h.ctrl.run(r.ctx)
	}()

	if _, err := h.ctrl.enqueue(ctx, command{kind: cmdInitialize}); err != nil {
		_ = h.ctrl.stop(context.WithoutCancel(ctx), teardown{reason: "create cancelled"})
		r.evict(h)
		return nil, err
	}

	r.cfg.logger.InfoContext(logger.WithTenant(ctx, tenant), "session created")
	return h, nil
}

// Destroy tears tenant's session down and removes its persisted record.
// An absent tenant yields ErrNotFound, which callers may ignore.
func (r *Registry) Destroy(ctx context.Context, tenant string) error {
	return r.terminate(ctx, tenant, teardown{reason: "destroy requested"})
}

// Logout invalidates tenant's credentials on the messaging platform and then
// tears the session down like Destroy.
func (r *Registry) Logout(ctx context.Context, tenant string) error {
	return r.terminate(ctx, tenant, teardown{reason: "logout requested", logout: true})
}

// PurgeCredentials deletes tenant's locally stored credentials so the next
// Create starts with a fresh pairing. It is refused while a live handle
// exists.
func (r *Registry) PurgeCredentials(ctx context.Context, tenant string) error {
	if err := ValidateTenant(tenant); err != nil {
		return err
	}
	if r.cfg.credentials == nil {
		return ErrNoCredentialStore
	}

	unlock := r.lock(tenant)
	defer unlock()

	if h := r.get(tenant); h != nil && h.State().Live() {
		return ErrAlreadyExists
	}
	return r.cfg.credentials.Delete(ctx, tenant)
}

// List returns a snapshot of every registered handle ordered by tenant.
func (r *Registry) List() []Info {
	r.mu.RLock()
	infos := make([]Info, 0, len(r.handles))
	for _, h := range r.handles {
		infos = append(infos, h.Snapshot())
	}
	r.mu.RUnlock()

	slices.SortFunc(infos, func(a, b Info) int {
		return strings.Compare(a.Tenant, b.Tenant)
	})
	return infos
}

// Len returns the number of registered handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// Close tears down every session without removing persisted records, so the
// next process start restores them. Create fails afterwards.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	tenants := make([]string, 0, len(r.handles))
	for tenant := range r.handles {
		tenants = append(tenants, tenant)
	}
	r.mu.Unlock()
	defer r.cancel()

	var g errgroup.Group
	for _, tenant := range tenants {
		g.Go(func() error {
			err := r.terminate(ctx, tenant, teardown{reason: "shutdown", keepRecord: true})
			if IsNotFound(err) {
				return nil
			}
			return err
		})
	}
	err := g.Wait()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return errors.Join(err, ctx.Err())
	}
	return err
}

func (r *Registry) terminate(ctx context.Context, tenant string, td teardown) error {
	if err := ValidateTenant(tenant); err != nil {
		return err
	}

	unlock := r.lock(tenant)
	defer unlock()

	h := r.get(tenant)
	if h == nil {
		r.cfg.logger.InfoContext(logger.WithTenant(ctx, tenant), "no session to tear down", logger.Reason(td.reason))
		return ErrNotFound
	}

	h.pending.Store(true)
	defer h.pending.Store(false)

	err := h.ctrl.stop(ctx, td)
	r.evict(h)
	return err
}

func (r *Registry) isClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

func (r *Registry) get(tenant string) *Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handles[tenant]
}

// evict removes h if it is still the tenant's registered handle.
func (r *Registry) evict(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handles[h.tenant] == h {
		delete(r.handles, h.tenant)
	}
}

func (r *Registry) lock(tenant string) func() {
	r.locksMu.Lock()
	l, ok := r.locks[tenant]
	if !ok {
		l = &sync.Mutex{}
		r.locks[tenant] = l
	}
	r.locksMu.Unlock()

	l.Lock()
	return l.Unlock
}
