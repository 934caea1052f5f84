// Package reconcile decides what happens to a subscription after a delivery
// attempt and applies that decision to the registry.
package reconcile

import (
	"context"

	"github.com/fundacionmisionvida7/Pagina/internal/delivery"
	"github.com/fundacionmisionvida7/Pagina/internal/registry"
	logpkg "github.com/fundacionmisionvida7/Pagina/pkg/log"
)

// Decision is what to do with a subscription after a delivery.
type Decision int

const (
	Keep Decision = iota
	Prune
)

func (d Decision) String() string {
	if d == Prune {
		return "prune"
	}
	return "keep"
}

// Classify prunes on permanent failure and keeps otherwise.
func Classify(out delivery.Outcome) Decision {
	if out.Kind == delivery.PermanentFailure {
		return Prune
	}
	return Keep
}

// Remover is the registry surface the policy needs.
type Remover interface {
	Remove(ctx context.Context, endpoint string) (registry.RemoveResult, error)
}

// Policy applies decisions to the registry.
type Policy struct {
	remover Remover
	logger  logpkg.Logger
}

// New returns a Policy removing through r.
func New(r Remover, logger logpkg.Logger) *Policy {
	if logger == nil {
		logger = logpkg.NewLogger().With(logpkg.Component("reconcile"))
	}
	return &Policy{remover: r, logger: logger}
}

// Apply executes d for endpoint and reports whether this call removed the
// record. A record already gone counts as success, so two broadcasts pruning
// the same endpoint both succeed.
func (p *Policy) Apply(ctx context.Context, endpoint string, d Decision) (bool, error) {
	if d != Prune {
		return false, nil
	}
	res, err := p.remover.Remove(ctx, endpoint)
	if err != nil {
		return false, err
	}
	if res == registry.NotFound {
		p.logger.Debug("prune target already gone", logpkg.Str("endpoint", endpoint))
		return false, nil
	}
	p.logger.Info("pruned dead subscription", logpkg.Str("endpoint", endpoint))
	return true, nil
}
