package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/botfleet/pkg/logger"
	"github.com/dmitrymomot/botfleet/pkg/statemachine"
	"github.com/dmitrymomot/botfleet/svc/client"
	"github.com/dmitrymomot/botfleet/svc/notify"
)

type commandKind int

const (
	cmdInitialize commandKind = iota
	cmdDestroy
)

type command struct {
	kind    commandKind
	destroy teardown
	reply   chan error
}

// teardown describes how a handle is taken down.
type teardown struct {
	reason     string
	logout     bool
	keepRecord bool
	cause      error
}

type controller struct {
	tenant  string
	handle  *Handle
	adapter *client.Adapter
	cfg     *config
	logger  *slog.Logger
	fsm     *statemachine.Machine[State, trigger]
	evict   func(*Handle)

	commands chan command
	done     chan struct{}

	initCtx    context.Context
	initCancel context.CancelFunc

	replyCtx    context.Context
	replyCancel context.CancelFunc
	replies     sync.WaitGroup

	mu             sync.RWMutex
	challenge      *Challenge
	transitionedAt time.Time
	recorded       bool
	err            error
}

func newController(h *Handle, cfg *config, evict func(*Handle)) *controller {
	c := &controller{
		tenant:   h.tenant,
		handle:   h,
		adapter:  h.adapter,
		cfg:      cfg,
		logger:   cfg.logger.With(logger.Component("session")),
		evict:    evict,
		commands: make(chan command, 4),
		done:     make(chan struct{}),

		transitionedAt: h.createdAt,
	}
	c.initCtx, c.initCancel = context.WithCancel(context.Background())
	c.replyCtx, c.replyCancel = context.WithCancel(context.Background())
	c.fsm = statemachine.MustNew(StateIdle, c.transitions()...)
	return c
}

func (c *controller) transitions() []statemachine.Option[State, trigger] {
	type opt = statemachine.TransitionOption[State, trigger]
	act := statemachine.WithActions[State, trigger]
	live := []State{StateIdle, StateAwaitingChallenge, StateAuthenticated, StateReady, StateDisconnected}
	pairing := []State{StateAwaitingChallenge, StateAuthenticated}

	terminal := statemachine.WithGuard[State, trigger](func(_ context.Context, _ State, _ trigger, data any) bool {
		ev, _ := data.(client.Event)
		return ev.Reason.Terminal()
	})
	recoverable := statemachine.WithGuard[State, trigger](func(_ context.Context, _ State, _ trigger, data any) bool {
		ev, _ := data.(client.Event)
		return !ev.Reason.Terminal()
	})

	return []statemachine.Option[State, trigger]{
		statemachine.WithTransition(StateIdle, StateAwaitingChallenge, triggerInitialize,
			act(c.initialize)),
		statemachine.WithTransition(StateAwaitingChallenge, StateAwaitingChallenge, triggerChallenge,
			act(c.offerChallenge)),
		statemachine.WithTransition(StateAwaitingChallenge, StateAuthenticated, triggerAuthenticated,
			act(c.clearChallenge, c.publish(notify.KindConnecting))),
		statemachine.WithTransition(StateAuthenticated, StateReady, triggerReady,
			act(c.addRecord, c.publish(notify.KindReady))),
		statemachine.WithTransitionFrom(pairing, StateDestroyed, triggerAuthFailure,
			act(c.failAuth, c.shutdown, c.clearChallenge, c.publish(notify.KindDisconnected), c.release)),
		statemachine.WithTransition(StateReady, StateReady, triggerMessage,
			act(c.autoReply)),
		statemachine.WithTransition(StateReady, StateDestroyed, triggerDisconnected,
			[]opt{terminal, act(c.removeRecord, c.shutdown, c.publish(notify.KindDisconnected), c.release)}...),
		statemachine.WithTransition(StateReady, StateDisconnected, triggerDisconnected,
			[]opt{recoverable, act(c.removeRecord, c.publish(notify.KindDisconnected))}...),
		statemachine.WithTransitionFrom(pairing, StateDestroyed, triggerDisconnected,
			act(c.shutdown, c.clearChallenge, c.publish(notify.KindDisconnected), c.release)),
		statemachine.WithTransitionFrom(live, StateDestroyed, triggerDestroy,
			act(c.recordCause, c.shutdown, c.removeRecord, c.clearChallenge, c.publish(notify.KindDisconnected), c.release)),
	}
}

func (c *controller) run(ctx context.Context) {
	defer close(c.done)
	defer func() {
		c.initCancel()
		c.replyCancel()
		c.replies.Wait()
	}()

	ctx = logger.WithTenant(ctx, c.tenant)
	events := c.adapter.Events()

	var (
		timer   *time.Timer
		timeout <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case cmd := <-c.commands:
			err := c.handleCommand(ctx, cmd)
			if cmd.reply != nil {
				cmd.reply <- err
			}
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			c.handleEvent(ctx, ev)
		case <-timeout:
			timer, timeout = nil, nil
			c.logger.WarnContext(ctx, "challenge not answered in time", logger.Reason("challenge timeout"))
			_ = c.terminate(ctx, teardown{reason: "challenge timeout", cause: ErrChallengeTimeout})
		}

		state := c.fsm.Current()
		if state == StateDestroyed {
			return
		}

		switch {
		case state == StateAwaitingChallenge && timer == nil && c.cfg.challengeTimeout > 0:
			timer = time.NewTimer(c.cfg.challengeTimeout)
			timeout = timer.C
		case state != StateAwaitingChallenge && timer != nil:
			timer.Stop()
			timer, timeout = nil, nil
		}
	}
}

// enqueue hands cmd to the controller goroutine. It reports false when the
// controller has already stopped.
func (c *controller) enqueue(ctx context.Context, cmd command) (bool, error) {
	select {
	case c.commands <- cmd:
		return true, nil
	case <-c.done:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// stop drives the handle to destroyed and waits for the controller to exit.
// A pending adapter initialization is interrupted first.
func (c *controller) stop(ctx context.Context, td teardown) error {
	c.initCancel()

	cmd := command{kind: cmdDestroy, destroy: td, reply: make(chan error, 1)}
	sent, err := c.enqueue(ctx, cmd)
	if err != nil {
		return err
	}
	if sent {
		// The controller may exit before reaching cmd, e.g. when an
		// interrupted initialize already destroyed the handle.
		select {
		case err = <-cmd.reply:
		case <-c.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	select {
	case <-c.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}

func (c *controller) handleCommand(ctx context.Context, cmd command) error {
	switch cmd.kind {
	case cmdInitialize:
		err := c.fire(ctx, triggerInitialize, nil)
		if err == nil {
			return nil
		}
		// initCtx is only cancelled by stop, so an interrupted initialize is
		// an explicit destroy and leaves no cause behind.
		if c.initCtx.Err() != nil {
			c.logger.InfoContext(ctx, "client initialization interrupted")
			return c.terminate(ctx, teardown{reason: "initialize interrupted"})
		}
		c.logger.ErrorContext(ctx, "failed to initialize client", logger.Error(err))
		return errors.Join(err, c.terminate(ctx, teardown{reason: "initialize failed", cause: err}))
	case cmdDestroy:
		return c.terminate(ctx, cmd.destroy)
	default:
		return nil
	}
}

func (c *controller) terminate(ctx context.Context, td teardown) error {
	if c.fsm.Is(StateDestroyed) {
		return nil
	}
	return c.fire(ctx, triggerDestroy, td)
}

func (c *controller) handleEvent(ctx context.Context, ev client.Event) {
	var tr trigger
	switch ev.Kind {
	case client.EventChallenge:
		tr = triggerChallenge
	case client.EventAuthenticated:
		tr = triggerAuthenticated
	case client.EventReady:
		tr = triggerReady
	case client.EventMessage:
		tr = triggerMessage
	case client.EventDisconnected:
		tr = triggerDisconnected
	case client.EventAuthFailure:
		tr = triggerAuthFailure
	default:
		c.logger.DebugContext(ctx, "ignoring unknown client event", logger.Event(string(ev.Kind)))
		return
	}

	err := c.fire(ctx, tr, ev)
	switch {
	case err == nil:
	case statemachine.Unhandled(err):
		c.logger.DebugContext(ctx, "ignoring client event",
			logger.Event(string(ev.Kind)),
			slog.String("state", c.fsm.Current().String()),
		)
	default:
		c.logger.WarnContext(ctx, "failed to handle client event",
			logger.Event(string(ev.Kind)),
			logger.Error(err),
		)
	}
}

func (c *controller) fire(ctx context.Context, tr trigger, data any) error {
	from := c.fsm.Current()
	if err := c.fsm.Fire(ctx, tr, data); err != nil {
		return err
	}
	to := c.fsm.Current()

	c.mu.Lock()
	c.transitionedAt = c.cfg.now()
	c.mu.Unlock()

	level := slog.LevelInfo
	if from == to {
		level = slog.LevelDebug
	}
	c.logger.Log(ctx, level, "session transition",
		logger.Transition(from.String(), to.String()),
		logger.Event(string(tr)),
	)
	return nil
}

func (c *controller) state() State {
	return c.fsm.Current()
}

func (c *controller) currentChallenge() (Challenge, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.challenge == nil {
		return Challenge{}, false
	}
	return *c.challenge, true
}

func (c *controller) cause() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

func (c *controller) initialize(context.Context, State, State, trigger, any) error {
	return c.adapter.Initialize(c.initCtx)
}

func (c *controller) offerChallenge(ctx context.Context, _, _ State, _ trigger, data any) error {
	ev, _ := data.(client.Event)
	if ev.Challenge == "" {
		return nil
	}

	artifact, err := c.cfg.renderer.DataURL(ev.Challenge)
	if err != nil {
		artifact = ""
	}

	// The new challenge supersedes the previous one even without an artifact.
	c.mu.Lock()
	c.challenge = &Challenge{Raw: ev.Challenge, Artifact: artifact, IssuedAt: c.cfg.now()}
	c.mu.Unlock()

	if err != nil {
		c.logger.WarnContext(ctx, "failed to render challenge", logger.Error(err))
		return nil
	}

	c.notify(ctx, notify.Challenge(c.tenant, artifact))
	return nil
}

func (c *controller) clearChallenge(context.Context, State, State, trigger, any) error {
	c.mu.Lock()
	c.challenge = nil
	c.mu.Unlock()
	return nil
}

func (c *controller) publish(kind notify.Kind) statemachine.Action[State, trigger] {
	return func(ctx context.Context, _, _ State, _ trigger, _ any) error {
		c.notify(ctx, notify.Event{Kind: kind, Tenant: c.tenant})
		return nil
	}
}

func (c *controller) notify(ctx context.Context, ev notify.Event) {
	if err := c.cfg.publisher.Publish(ctx, ev); err != nil {
		c.logger.WarnContext(ctx, "failed to publish notification",
			logger.Event(string(ev.Kind)),
			logger.Error(err),
		)
	}
}

func (c *controller) addRecord(ctx context.Context, _, _ State, _ trigger, _ any) error {
	c.mu.Lock()
	c.recorded = true
	c.mu.Unlock()

	if err := c.cfg.gateway.AddRecord(ctx, c.tenant, c.cfg.now()); err != nil {
		c.logger.WarnContext(ctx, "failed to add session record",
			slog.Bool("reconciliation", true),
			logger.Error(err),
		)
	}
	return nil
}

func (c *controller) removeRecord(ctx context.Context, _, _ State, _ trigger, data any) error {
	if td, ok := data.(teardown); ok && td.keepRecord {
		return nil
	}

	c.mu.Lock()
	recorded := c.recorded
	c.recorded = false
	c.mu.Unlock()
	if !recorded {
		return nil
	}

	if err := c.cfg.gateway.RemoveRecord(ctx, c.tenant); err != nil {
		c.logger.WarnContext(ctx, "failed to remove session record",
			slog.Bool("reconciliation", true),
			logger.Error(err),
		)
	}
	return nil
}

func (c *controller) shutdown(ctx context.Context, _, _ State, _ trigger, data any) error {
	if td, ok := data.(teardown); ok && td.logout {
		if err := c.adapter.Logout(ctx); err != nil {
			c.logger.WarnContext(ctx, "failed to log out client", logger.Error(err))
		}
	}
	if err := c.adapter.Destroy(ctx); err != nil {
		c.logger.WarnContext(ctx, "failed to destroy client", logger.Error(err))
	}
	return nil
}

func (c *controller) failAuth(ctx context.Context, _, _ State, _ trigger, data any) error {
	ev, _ := data.(client.Event)
	cause := ErrAuthFailure
	if ev.Err != nil {
		cause = errors.Join(ErrAuthFailure, ev.Err)
	}
	c.logger.WarnContext(ctx, "client authentication failed", logger.Error(ev.Err))

	c.mu.Lock()
	c.err = cause
	c.mu.Unlock()
	return nil
}

func (c *controller) recordCause(ctx context.Context, _, _ State, _ trigger, data any) error {
	td, _ := data.(teardown)
	if td.reason != "" {
		c.logger.InfoContext(ctx, "tearing down session", logger.Reason(td.reason))
	}
	if td.cause != nil {
		c.mu.Lock()
		c.err = td.cause
		c.mu.Unlock()
	}
	return nil
}

func (c *controller) release(context.Context, State, State, trigger, any) error {
	c.evict(c.handle)
	return nil
}

func (c *controller) autoReply(ctx context.Context, _, _ State, _ trigger, data any) error {
	ev, _ := data.(client.Event)
	if c.cfg.responder == nil || ev.Message.From == "" || !c.cfg.responder.Matches(ev.Message.Body) {
		return nil
	}

	c.replies.Add(1)
	go func() {
		defer c.replies.Done()

		replyCtx := logger.WithTenant(c.replyCtx, c.tenant)
		sent, err := c.cfg.responder.Reply(replyCtx, c.adapter, ev.Message.From)
		if err != nil {
			c.logger.WarnContext(replyCtx, "auto-reply failed",
				slog.String("to", ev.Message.From),
				slog.Int("sent", sent),
				logger.Error(err),
			)
			return
		}
		c.logger.InfoContext(replyCtx, "auto-reply sent",
			slog.String("to", ev.Message.From),
			slog.Int("sent", sent),
		)
	}()
	return nil
}
