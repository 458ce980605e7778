package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/Zhima-Mochi/courseshop/internal/apperr"
	"github.com/Zhima-Mochi/courseshop/internal/domain/session"
	"github.com/Zhima-Mochi/courseshop/internal/observability"
	"github.com/Zhima-Mochi/courseshop/internal/observability/logctx"
)

const (
	gateService = "auth-gate"

	StageAuthenticate = "authenticate"
	StageAuthorize    = "authorize"
)

// Verifier checks a raw credential's signature and expiry and returns the
// subject id it carries.
type Verifier interface {
	Verify(raw string) (string, error)
}

// SessionReader is the read side of the session store; the gate never writes.
type SessionReader interface {
	Get(ctx context.Context, subjectID string) (*session.Record, error)
}

// Gate authenticates credentials against the live session cache and
// authorizes the resulting identity by role.
type Gate struct {
	verifier Verifier
	sessions SessionReader

	log       observability.Logger
	decisions observability.Counter // auth_decisions_total{stage,outcome}
}

func NewGate(verifier Verifier, sessions SessionReader, tel observability.Observability) *Gate {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Gate{
		verifier:  verifier,
		sessions:  sessions,
		log:       tel.Logger().With(observability.F("service", gateService)),
		decisions: tel.Metrics().Counter(observability.MAuthDecisions),
	}
}

// Authenticate resolves raw into the cached identity snapshot. An empty raw
// fails with NoCredential, a rejected token with InvalidCredential and a
// token whose subject has no live session with SessionNotFound.
func (g *Gate) Authenticate(ctx context.Context, raw string) (*session.Record, error) {
	if raw == "" {
		return nil, g.deny(ctx, StageAuthenticate, apperr.New(apperr.KindNoCredential, "Please login to access this resource"))
	}

	subjectID, err := g.verifier.Verify(raw)
	if err != nil {
		return nil, g.deny(ctx, StageAuthenticate, apperr.Wrap(apperr.KindInvalidCredential, "Invalid or expired token", err))
	}

	rec, err := g.sessions.Get(ctx, subjectID)
	switch {
	case errors.Is(err, session.ErrNotFound):
		return nil, g.deny(ctx, StageAuthenticate, apperr.New(apperr.KindSessionNotFound, "Please login to access this resource"))
	case err != nil:
		return nil, g.deny(ctx, StageAuthenticate, apperr.Wrap(apperr.KindInternal, "session lookup failed", err))
	}

	g.allow(StageAuthenticate)
	return rec, nil
}

// Authorize passes when id's role is one of roles. A denial names both the
// observed role and operation.
func (g *Gate) Authorize(ctx context.Context, operation string, id *session.Record, roles ...string) error {
	role := ""
	if id != nil {
		role = id.Role
	}
	if !slices.Contains(roles, role) {
		err := apperr.Wrap(apperr.KindRoleDenied,
			fmt.Sprintf("Role: %s is not allowed to access this resource", role),
			fmt.Errorf("operation %s", operation))
		return g.deny(ctx, StageAuthorize, err, observability.F("operation", operation))
	}
	g.allow(StageAuthorize)
	return nil
}

func (g *Gate) allow(stage string) {
	g.decisions.Add(1,
		observability.L("stage", stage),
		observability.L("outcome", "allowed"),
	)
}

func (g *Gate) deny(ctx context.Context, stage string, err error, extra ...observability.Field) error {
	kind := apperr.KindOf(err)
	g.decisions.Add(1,
		observability.L("stage", stage),
		observability.L("outcome", string(kind)),
	)
	fields := append([]observability.Field{
		observability.F("stage", stage),
		observability.F("kind", string(kind)),
		observability.F("error", err.Error()),
	}, extra...)
	logctx.FromOr(ctx, g.log).Warn("auth_denied", fields...)
	return err
}

type identityKey struct{}

// WithIdentity stores the authenticated identity on ctx.
func WithIdentity(ctx context.Context, id *session.Record) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by WithIdentity, if any.
func IdentityFrom(ctx context.Context) (*session.Record, bool) {
	id, ok := ctx.Value(identityKey{}).(*session.Record)
	return id, ok && id != nil
}
