package approval

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/ivankudzin/botgate/internal/domain/enums"
	"github.com/ivankudzin/botgate/internal/domain/model"
	"github.com/ivankudzin/botgate/internal/domain/platform"
	"github.com/ivankudzin/botgate/internal/metrics"
	"github.com/ivankudzin/botgate/internal/services/audit"
	"github.com/ivankudzin/botgate/internal/services/notify"
)

const (
	ReasonTimeout        = "timeout - no approval received"
	ReasonNoModerators   = "no moderators available"
	defaultEffectTimeout = 30 * time.Second
)

type OpenResult string

const (
	OpenPending      OpenResult = "pending"
	OpenAllowed      OpenResult = "allowed"
	OpenDuplicate    OpenResult = "duplicate"
	OpenAutoRejected OpenResult = "auto_rejected"
	OpenErrored      OpenResult = "errored"
	OpenIgnored      OpenResult = "ignored"
)

type Directory interface {
	Moderators(ctx context.Context, communityID int64) ([]model.Member, error)
}

type Notifier interface {
	Dispatch(ctx context.Context, c model.Case, moderators []model.Member) []model.Receipt
	Alert(ctx context.Context, moderators []model.Member, text string) int
	Confirm(ctx context.Context, moderator model.Principal, c model.Case) error
	Settle(ctx context.Context, c model.Case, status enums.CaseStatus, actor *model.Principal)
}

type Recorder interface {
	Record(ctx context.Context, record model.AuditRecord) error
}

// ApprovedMirror persists the approved set outside the process.
type ApprovedMirror interface {
	Add(ctx context.Context, entityID int64) error
	Members(ctx context.Context) ([]int64, error)
}

type Deps struct {
	Directory Directory
	Notifier  Notifier
	Recorder  Recorder
	Remover   platform.Remover
	Mirror    ApprovedMirror
}

type ResolveResult struct {
	Case    model.Case
	KickErr error
}

type entry struct {
	c          model.Case
	timer      *time.Timer
	dispatched bool
}

type interruption struct {
	status enums.CaseStatus
	actor  *model.Principal
}

type Engine struct {
	deps          Deps
	timeout       time.Duration
	effectTimeout time.Duration
	log           *zap.Logger
	now           func() time.Time
	newID         func() string

	pending     *xsync.MapOf[int64, *entry]
	opening     *xsync.MapOf[int64, struct{}]
	approved    *xsync.MapOf[int64, struct{}]
	interrupted *xsync.MapOf[string, interruption]
	closed      atomic.Bool
}

func NewEngine(deps Deps, timeout time.Duration, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		deps:          deps,
		timeout:       timeout,
		effectTimeout: defaultEffectTimeout,
		log:           log,
		now:           func() time.Time { return time.Now().UTC() },
		newID:         uuid.NewString,
		pending:       xsync.NewMapOf[int64, *entry](),
		opening:       xsync.NewMapOf[int64, struct{}](),
		approved:      xsync.NewMapOf[int64, struct{}](),
		interrupted:   xsync.NewMapOf[string, interruption](),
	}
}

func (e *Engine) Timeout() time.Duration {
	return e.timeout
}

// Rehydrate loads the approved set from the mirror. Pending cases are never restored.
func (e *Engine) Rehydrate(ctx context.Context) (int, error) {
	if e.deps.Mirror == nil {
		return 0, nil
	}
	ids, err := e.deps.Mirror.Members(ctx)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		e.approved.Store(id, struct{}{})
	}
	return len(ids), nil
}

func (e *Engine) Open(ctx context.Context, ev model.JoinEvent) OpenResult {
	if !ev.IsAutomated || e.closed.Load() {
		return OpenIgnored
	}

	c := e.newCase(ev)
	log := e.log.With(
		zap.String("case_id", c.ID),
		zap.Int64("entity_id", c.EntityID),
		zap.Int64("community_id", c.CommunityID),
	)

	e.record(ctx, c, enums.AuditActionDetected, nil, detectedReason(c))

	if e.IsApproved(c.EntityID) {
		log.Info("approved entity rejoined")
		return e.opened(OpenAllowed)
	}

	if _, loaded := e.opening.LoadOrStore(c.EntityID, struct{}{}); loaded {
		log.Warn("entity is already being opened, ignoring duplicate join")
		return e.opened(OpenDuplicate)
	}
	defer e.opening.Delete(c.EntityID)

	if _, ok := e.pending.Load(c.EntityID); ok {
		log.Warn("entity already has a pending case, ignoring duplicate join")
		return e.opened(OpenDuplicate)
	}
	// An approval may have landed between the first check and the claim.
	if e.IsApproved(c.EntityID) {
		log.Info("approved entity rejoined")
		return e.opened(OpenAllowed)
	}

	moderators, err := e.deps.Directory.Moderators(ctx, c.CommunityID)
	if err != nil {
		log.Error("resolve moderators", zap.Error(err))
		return e.opened(OpenErrored)
	}

	if len(moderators) == 0 {
		log.Warn("no moderators available, rejecting entity")
		c.Status = enums.CaseStatusAutoRejected
		metrics.CasesResolved.WithLabelValues(string(c.Status)).Inc()
		e.settle(ctx, c, enums.CaseStatusAutoRejected, nil, ReasonNoModerators)
		return e.opened(OpenAutoRejected)
	}

	inserted, closed := false, false
	e.pending.Compute(c.EntityID, func(old *entry, loaded bool) (*entry, bool) {
		if loaded {
			return old, false
		}
		// Shutdown sets closed before draining pending.
		if e.closed.Load() {
			closed = true
			return nil, true
		}
		inserted = true
		c.CreatedAt = e.now()
		c.Deadline = c.CreatedAt.Add(e.timeout)
		return &entry{c: c, timer: e.startTimer(c)}, false
	})
	if closed {
		log.Info("engine shut down, join not opened")
		return e.opened(OpenIgnored)
	}
	if !inserted {
		log.Warn("entity already has a pending case, ignoring duplicate join")
		return e.opened(OpenDuplicate)
	}
	metrics.CasesPending.Inc()
	fields := []zap.Field{
		zap.Int("moderators", len(moderators)),
		zap.Time("deadline", c.Deadline),
	}
	if !ev.ReceivedAt.IsZero() {
		fields = append(fields, zap.Duration("event_age", c.CreatedAt.Sub(ev.ReceivedAt)))
	}
	log.Info("case opened", fields...)

	receipts := e.deps.Notifier.Dispatch(ctx, c, moderators)
	e.attachReceipts(ctx, c, receipts)

	return e.opened(OpenPending)
}

// Resolve moves the entity's pending case to a terminal status. Exactly one caller per case gets true.
func (e *Engine) Resolve(ctx context.Context, entityID int64, outcome enums.CaseStatus, actor *model.Principal, reason string) (ResolveResult, bool) {
	return e.resolve(ctx, entityID, "", outcome, actor, reason)
}

func (e *Engine) resolve(ctx context.Context, entityID int64, caseID string, outcome enums.CaseStatus, actor *model.Principal, reason string) (ResolveResult, bool) {
	if outcome != enums.CaseStatusApproved && !outcome.IsRemoval() {
		return ResolveResult{}, false
	}

	var taken *entry
	e.pending.Compute(entityID, func(old *entry, loaded bool) (*entry, bool) {
		if !loaded {
			return nil, true
		}
		if caseID != "" && old.c.ID != caseID {
			return old, false
		}
		taken = old
		if outcome == enums.CaseStatusApproved {
			e.approved.Store(entityID, struct{}{})
		}
		if !old.dispatched {
			e.interrupted.Store(old.c.ID, interruption{status: outcome, actor: actor})
		}
		return nil, true
	})
	if taken == nil {
		return ResolveResult{}, false
	}

	if taken.timer != nil {
		taken.timer.Stop()
	}
	metrics.CasesPending.Dec()

	c := taken.c
	c.Status = outcome
	metrics.CasesResolved.WithLabelValues(string(outcome)).Inc()
	metrics.ResolveLatency.Observe(e.now().Sub(c.CreatedAt).Seconds())

	fields := []zap.Field{
		zap.String("case_id", c.ID),
		zap.Int64("entity_id", c.EntityID),
		zap.Int64("community_id", c.CommunityID),
		zap.String("status", string(outcome)),
	}
	if actor != nil {
		fields = append(fields, zap.Int64("moderator_id", actor.ID))
	}
	e.log.Info("case resolved", fields...)

	kickErr := e.settle(ctx, c, outcome, actor, reason)
	return ResolveResult{Case: c, KickErr: kickErr}, true
}

func (e *Engine) Lookup(entityID int64) (model.Case, bool) {
	ent, ok := e.pending.Load(entityID)
	if !ok {
		return model.Case{}, false
	}
	return ent.c, true
}

// Pending returns a snapshot of the pending cases, oldest first.
func (e *Engine) Pending() []model.Case {
	result := make([]model.Case, 0, e.pending.Size())
	e.pending.Range(func(_ int64, ent *entry) bool {
		result = append(result, ent.c)
		return true
	})
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

func (e *Engine) IsApproved(entityID int64) bool {
	_, ok := e.approved.Load(entityID)
	return ok
}

func (e *Engine) ApprovedCount() int {
	return e.approved.Size()
}

// Shutdown stops every timer and abandons the pending cases.
func (e *Engine) Shutdown() int {
	e.closed.Store(true)
	abandoned := 0
	e.pending.Range(func(id int64, _ *entry) bool {
		if ent, ok := e.pending.LoadAndDelete(id); ok {
			if ent.timer != nil {
				ent.timer.Stop()
			}
			abandoned++
			metrics.CasesPending.Dec()
		}
		return true
	})
	if abandoned > 0 {
		e.log.Warn("pending cases abandoned on shutdown", zap.Int("count", abandoned))
	}
	return abandoned
}

// newCase stamps the case with the current time. Open restamps it on insertion, which starts the countdown.
func (e *Engine) newCase(ev model.JoinEvent) model.Case {
	created := e.now()
	return model.Case{
		ID:              e.newID(),
		EntityID:        ev.EntityID,
		EntityName:      ev.EntityName,
		CommunityID:     ev.CommunityID,
		CommunityName:   ev.CommunityName,
		EntityCreatedAt: ev.EntityCreatedAt,
		Permissions:     ev.Permissions,
		Inviter:         ev.Inviter,
		CreatedAt:       created,
		Deadline:        created.Add(e.timeout),
		Status:          enums.CaseStatusPending,
	}
}

// startTimer runs inside the pending map's critical section for the key, so expiry cannot observe a missing case.
func (e *Engine) startTimer(c model.Case) *time.Timer {
	entityID, caseID := c.EntityID, c.ID
	return time.AfterFunc(e.timeout, func() {
		e.resolve(context.Background(), entityID, caseID, enums.CaseStatusAutoRejected, nil, ReasonTimeout)
	})
}

func (e *Engine) attachReceipts(ctx context.Context, c model.Case, receipts []model.Receipt) {
	attached := false
	e.pending.Compute(c.EntityID, func(old *entry, loaded bool) (*entry, bool) {
		if !loaded {
			return nil, true
		}
		if old.c.ID != c.ID {
			return old, false
		}
		next := &entry{c: old.c, timer: old.timer, dispatched: true}
		next.c.Receipts = receipts
		attached = true
		return next, false
	})
	if attached {
		return
	}

	// Resolved while requests were still going out; the winner could not see these receipts.
	if done, ok := e.interrupted.LoadAndDelete(c.ID); ok {
		c.Receipts = receipts
		e.deps.Notifier.Settle(e.effectContext(ctx), c, done.status, done.actor)
	}
}

// settle runs the side effects of a terminal transition and returns the removal error, if any.
func (e *Engine) settle(ctx context.Context, c model.Case, status enums.CaseStatus, actor *model.Principal, reason string) error {
	ctx, cancel := context.WithTimeout(e.effectContext(ctx), e.effectTimeout)
	defer cancel()

	log := e.log.With(zap.String("case_id", c.ID), zap.Int64("entity_id", c.EntityID))

	var kickErr error
	if status == enums.CaseStatusApproved {
		if e.deps.Mirror != nil {
			if err := e.deps.Mirror.Add(ctx, c.EntityID); err != nil {
				log.Error("mirror approved entity", zap.Error(err))
			}
		}
		if actor != nil {
			if err := e.deps.Notifier.Confirm(ctx, *actor, c); err != nil {
				log.Warn("approval confirmation not delivered", zap.Int64("moderator_id", actor.ID), zap.Error(err))
			}
		}
	} else {
		kickErr = e.kick(ctx, c, reason, log)
		if errors.Is(kickErr, platform.ErrPermissionDenied) {
			reason += " (kick failed: missing permission to remove members)"
		}
	}

	if action, ok := enums.AuditActionForStatus(status); ok {
		e.record(ctx, c, action, actor, reason)
	}
	if len(c.Receipts) > 0 {
		e.deps.Notifier.Settle(ctx, c, status, actor)
	}
	return kickErr
}

func (e *Engine) kick(ctx context.Context, c model.Case, reason string, log *zap.Logger) error {
	err := e.deps.Remover.Kick(ctx, c.CommunityID, c.EntityID, reason)
	switch {
	case err == nil:
		metrics.KickResults.WithLabelValues("kicked").Inc()
		log.Info("entity removed", zap.String("reason", reason))
	case errors.Is(err, platform.ErrNotFound):
		metrics.KickResults.WithLabelValues("gone").Inc()
		log.Info("entity already left before removal")
	case errors.Is(err, platform.ErrPermissionDenied):
		metrics.KickResults.WithLabelValues("denied").Inc()
		log.Error("missing permission to remove entity", zap.Error(err))
		e.alertDenied(ctx, c, log)
	default:
		metrics.KickResults.WithLabelValues("failed").Inc()
		log.Error("remove entity", zap.Error(err))
	}
	return err
}

func (e *Engine) alertDenied(ctx context.Context, c model.Case, log *zap.Logger) {
	moderators, err := e.deps.Directory.Moderators(ctx, c.CommunityID)
	if err != nil {
		log.Error("resolve moderators for alert", zap.Error(err))
		return
	}
	delivered := e.deps.Notifier.Alert(ctx, moderators, notify.KickDeniedText(c))
	log.Info("removal failure alert sent", zap.Int("delivered", delivered), zap.Int("moderators", len(moderators)))
}

func (e *Engine) record(ctx context.Context, c model.Case, action enums.AuditAction, actor *model.Principal, reason string) {
	if e.deps.Recorder == nil {
		return
	}
	rec := audit.NewRecord(c, action, actor, reason, e.now())
	if err := e.deps.Recorder.Record(e.effectContext(ctx), rec); err != nil {
		metrics.AuditWriteErrors.Inc()
		e.log.Error("write audit record",
			zap.String("case_id", c.ID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}

func (e *Engine) effectContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}

func (e *Engine) opened(result OpenResult) OpenResult {
	metrics.CasesOpened.WithLabelValues(string(result)).Inc()
	return result
}

func detectedReason(c model.Case) string {
	if c.Inviter != nil {
		return "bot joined, added by " + c.Inviter.Name
	}
	return "bot joined"
}
