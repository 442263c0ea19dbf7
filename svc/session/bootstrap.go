package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/botfleet/pkg/logger"
)

const defaultBootstrapConcurrency = 4

// Lister returns the tenants that should have a session. persistence.Gateway
// satisfies it.
type Lister interface {
	ListActive(ctx context.Context) ([]string, error)
}

// Creator starts a session. *Registry satisfies it.
type Creator interface {
	Create(ctx context.Context, tenant string) (*Handle, error)
}

// BootstrapReport lists the outcome per tenant.
type BootstrapReport struct {
	Started []string
	Failed  map[string]error
}

type bootstrapOptions struct {
	concurrency int
	logger      *slog.Logger
}

type BootstrapOption func(*bootstrapOptions)

// WithConcurrency bounds how many sessions are created at once.
func WithConcurrency(n int) BootstrapOption {
	return func(o *bootstrapOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

func WithBootstrapLogger(l *slog.Logger) BootstrapOption {
	return func(o *bootstrapOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Bootstrap recreates a session for every tenant reported by lister. A failure
// for one tenant is logged and recorded in the report without affecting the
// others. Only a listing failure is returned as an error.
func Bootstrap(ctx context.Context, lister Lister, creator Creator, opts ...BootstrapOption) (BootstrapReport, error) {
	o := bootstrapOptions{
		concurrency: defaultBootstrapConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	report := BootstrapReport{Failed: make(map[string]error)}

	tenants, err := lister.ListActive(ctx)
	if err != nil {
		return report, fmt.Errorf("list active sessions: %w", err)
	}

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, len(tenants))
		g    errgroup.Group
	)
	g.SetLimit(o.concurrency)

	for _, tenant := range tenants {
		if _, dup := seen[tenant]; dup {
			continue
		}
		seen[tenant] = struct{}{}

		g.Go(func() error {
			tctx := logger.WithTenant(ctx, tenant)
			_, err := creator.Create(tctx, tenant)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				o.logger.ErrorContext(tctx, "failed to restore session", logger.Error(err))
				report.Failed[tenant] = err
				return nil
			}
			report.Started = append(report.Started, tenant)
			return nil
		})
	}
	_ = g.Wait()

	o.logger.InfoContext(ctx, "sessions restored",
		slog.Int("started", len(report.Started)),
		slog.Int("failed", len(report.Failed)),
	)
	return report, nil
}
