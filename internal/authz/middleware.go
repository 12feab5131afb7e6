package authz

import (
	"log/slog"
	"net/http"

	"github.com/bookapi/book-api/internal/platform/httpx"
)

// DecisionObserver receives every decision taken by an Enforcer.
type DecisionObserver interface {
	ObserveDecision(operation, outcome string)
}

// Enforcer guards HTTP handlers with the registered requirement of their
// operation.
type Enforcer struct {
	engine   *Engine
	registry *Registry
	logger   *slog.Logger
	observer DecisionObserver
}

// NewEnforcer wires an Enforcer. logger and observer may be nil.
func NewEnforcer(engine *Engine, registry *Registry, logger *slog.Logger, observer DecisionObserver) *Enforcer {
	return &Enforcer{engine: engine, registry: registry, logger: logger, observer: observer}
}

// Require returns middleware enforcing the requirement registered for op.
// It panics when op is not registered, which surfaces while routes are
// mounted at startup.
func (e *Enforcer) Require(op Operation) func(http.Handler) http.Handler {
	req := e.registry.MustLookup(op)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := IdentityFromContext(r.Context())
			decision := e.engine.Decide(id, req)
			if e.observer != nil {
				e.observer.ObserveDecision(string(op), decision.Outcome())
			}
			if decision.Allowed() {
				next.ServeHTTP(w, r)
				return
			}
			if e.logger != nil {
				subject := ""
				if id != nil {
					subject = id.Subject
				}
				e.logger.Info("authz denied",
					slog.String("operation", string(op)),
					slog.String("denial", decision.Denial.String()),
					slog.String("subject", subject),
				)
			}
			status := StatusCode(decision)
			httpx.Problem(w, r, status, http.StatusText(status), decision.Message())
		})
	}
}

// StatusCode maps a decision to its HTTP status.
func StatusCode(d Decision) int {
	switch d.Denial {
	case DenialNone:
		return http.StatusOK
	case DenialUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusForbidden
	}
}
