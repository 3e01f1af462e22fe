package responses

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ivankudzin/botgate/internal/domain/enums"
	"github.com/ivankudzin/botgate/internal/domain/model"
	"github.com/ivankudzin/botgate/internal/domain/platform"
	"github.com/ivankudzin/botgate/internal/metrics"
	"github.com/ivankudzin/botgate/internal/services/approval"
)

type Outcome string

const (
	OutcomeResolved Outcome = "resolved"
	// OutcomeIgnored covers unknown requests and unauthorized responders alike.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeStale means the case was already decided by someone else or by the timer.
	OutcomeStale Outcome = "stale"
)

type Cases interface {
	Lookup(entityID int64) (model.Case, bool)
	Resolve(ctx context.Context, entityID int64, outcome enums.CaseStatus, actor *model.Principal, reason string) (approval.ResolveResult, bool)
}

type Authorizer interface {
	IsModerator(ctx context.Context, communityID, userID int64) (bool, error)
}

type Correlator interface {
	Lookup(msg platform.SentMessage) (int64, bool)
}

type ButtonPress struct {
	Message  platform.SentMessage
	Actor    model.Principal
	Response enums.Response
}

type CommandResponse struct {
	EntityID int64
	Actor    model.Principal
	Response enums.Response
}

type Router struct {
	cases        Cases
	auth         Authorizer
	correlations Correlator
	log          *zap.Logger
}

func NewRouter(cases Cases, auth Authorizer, correlations Correlator, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{cases: cases, auth: auth, correlations: correlations, log: log}
}

func (r *Router) HandleButton(ctx context.Context, press ButtonPress) Outcome {
	outcome := r.handleButton(ctx, press)
	metrics.ResponsesHandled.WithLabelValues("button", string(outcome)).Inc()
	return outcome
}

func (r *Router) handleButton(ctx context.Context, press ButtonPress) Outcome {
	entityID, ok := r.correlations.Lookup(press.Message)
	if !ok {
		return OutcomeIgnored
	}
	c, ok := r.cases.Lookup(entityID)
	if !ok {
		return OutcomeStale
	}
	outcome, _ := r.decide(ctx, c, press.Actor, press.Response)
	return outcome
}

// HandleCommand reports whether the command resolved a case, along with the resolution.
// Unknown entities and unauthorized callers are indistinguishable to the caller.
func (r *Router) HandleCommand(ctx context.Context, cmd CommandResponse) (approval.ResolveResult, bool) {
	outcome, result := r.handleCommand(ctx, cmd)
	metrics.ResponsesHandled.WithLabelValues("command", string(outcome)).Inc()
	return result, outcome == OutcomeResolved
}

func (r *Router) handleCommand(ctx context.Context, cmd CommandResponse) (Outcome, approval.ResolveResult) {
	c, ok := r.cases.Lookup(cmd.EntityID)
	if !ok {
		return OutcomeIgnored, approval.ResolveResult{}
	}
	return r.decide(ctx, c, cmd.Actor, cmd.Response)
}

func (r *Router) decide(ctx context.Context, c model.Case, actor model.Principal, response enums.Response) (Outcome, approval.ResolveResult) {
	status, ok := response.Status()
	if !ok {
		return OutcomeIgnored, approval.ResolveResult{}
	}

	allowed, err := r.auth.IsModerator(ctx, c.CommunityID, actor.ID)
	if err != nil {
		r.log.Warn("moderator check failed",
			zap.Int64("community_id", c.CommunityID),
			zap.Int64("user_id", actor.ID),
			zap.Error(err),
		)
		return OutcomeIgnored, approval.ResolveResult{}
	}
	if !allowed {
		r.log.Info("response from non-moderator ignored",
			zap.Int64("community_id", c.CommunityID),
			zap.Int64("user_id", actor.ID),
		)
		return OutcomeIgnored, approval.ResolveResult{}
	}

	result, ok := r.cases.Resolve(ctx, c.EntityID, status, &actor, reasonFor(status, actor))
	if !ok {
		return OutcomeStale, approval.ResolveResult{}
	}
	return OutcomeResolved, result
}

func reasonFor(status enums.CaseStatus, actor model.Principal) string {
	switch status {
	case enums.CaseStatusApproved:
		return fmt.Sprintf("approved by %s", actor.Name)
	default:
		return fmt.Sprintf("rejected by %s", actor.Name)
	}
}
