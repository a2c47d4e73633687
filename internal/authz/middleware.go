package authz

import (
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/sync/singleflight"

	"github.com/amnabbouti/launchpad-api-sub000/internal/platform/httpx"
	"github.com/amnabbouti/launchpad-api-sub000/internal/tenancy"
)

// Observer receives authorization outcomes for metrics. All methods must be
// safe for concurrent use.
type Observer interface {
	ObserveDecision(outcome, reason string)
	ObserveCache(hit bool)
}

// Middleware is the per-request pipeline stage: authenticate (upstream),
// set tenancy context, resolve the permission, consult the decision cache,
// evaluate on miss, enforce, run the handler, clear tenancy context.
type Middleware struct {
	Resolver *Resolver
	Engine   *Engine
	Cache    *DecisionCache
	Tenancy  *tenancy.Manager
	Logger   *slog.Logger
	Observer Observer

	// StrictRoutes denies requests whose route maps to no permission key.
	// Off by default: unmapped routes pass through unchecked, matching the
	// deliberate fallback the resolver contract documents.
	StrictRoutes bool

	group singleflight.Group
}

type denialBody struct {
	Message    string `json:"message"`
	Error      string `json:"error"`
	Permission string `json:"permission"`
	Role       string `json:"role"`
}

// Handle returns the chi middleware for the pipeline stage.
func (m *Middleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		principal := PrincipalFromContext(ctx)
		if principal == nil {
			// No identity, nothing to authorize and no tenant to bind.
			// Routes that require authentication reject on their own.
			next.ServeHTTP(w, r)
			return
		}

		ctx, cleanup, err := m.Tenancy.Setup(ctx, principal.OrgID)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Error("tenancy setup", slog.Any("error", err))
			}
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		// The tenant filter must clear before the pooled connection serves
		// another request, whatever the handler does.
		defer cleanup()

		permission := m.Resolver.Resolve(r.Method, r.URL.Path)
		if permission == "" {
			if m.StrictRoutes {
				m.respondDenial(w, Deny(ReasonForbiddenAction, msgForbidden, "", principal.Role.Slug))
				return
			}
			if m.Logger != nil {
				m.Logger.Warn("no permission mapped for route",
					slog.String("method", r.Method), slog.String("path", r.URL.Path))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		decision := m.decide(r, principal, permission)
		if m.Observer != nil {
			m.Observer.ObserveDecision(outcomeLabel(decision), decision.Reason)
		}
		if !decision.Allowed {
			m.respondDenial(w, decision)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) decide(r *http.Request, principal *Principal, permission string) Decision {
	ctx := r.Context()
	key := m.Cache.Key(principal, permission, r.Method, r.URL.Path)
	if decision, ok := m.Cache.Get(ctx, key); ok {
		if m.Observer != nil {
			m.Observer.ObserveCache(true)
		}
		return decision
	}
	if m.Observer != nil {
		m.Observer.ObserveCache(false)
	}

	// Collapse concurrent identical misses into one evaluation.
	result, _, _ := m.group.Do(key, func() (any, error) {
		decision := m.Engine.EvaluateKey(ctx, principal, permission)
		m.Cache.Put(ctx, key, decision)
		return decision, nil
	})
	return result.(Decision)
}

func (m *Middleware) respondDenial(w http.ResponseWriter, decision Decision) {
	writeDenial(w, decision)
}

func writeDenial(w http.ResponseWriter, decision Decision) {
	status := decision.StatusCode
	if status == 0 {
		status = http.StatusForbidden
	}
	httpx.JSON(w, status, denialBody{
		Message:    decision.Message,
		Error:      decision.Reason,
		Permission: decision.Permission,
		Role:       decision.Role,
	})
}

// RespondDenial writes the structured denial body for an Authorize error and
// reports whether err was a denial. Handlers use it for targeted checks.
func RespondDenial(w http.ResponseWriter, err error) bool {
	var denial *Denial
	if !errors.As(err, &denial) {
		return false
	}
	writeDenial(w, denial.Decision)
	return true
}

func outcomeLabel(decision Decision) string {
	if decision.Allowed {
		return "allow"
	}
	return "deny"
}
