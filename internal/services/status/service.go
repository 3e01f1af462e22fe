package status

import (
	"context"
	"time"

	"github.com/ivankudzin/botgate/internal/domain/model"
)

const (
	DefaultLogsLimit = 20
	MaxLogsLimit     = 50
)

type Cases interface {
	Pending() []model.Case
	Timeout() time.Duration
	ApprovedCount() int
}

type AuditReader interface {
	ListRecent(ctx context.Context, communityID int64, limit int) ([]model.AuditRecord, error)
	Stats(ctx context.Context, communityID int64) (model.AuditStats, error)
	History(ctx context.Context, entityID int64) ([]model.AuditRecord, error)
}

type PendingCase struct {
	Case      model.Case
	Remaining time.Duration
}

type Overview struct {
	Pending       []PendingCase
	ApprovedCount int
	Timeout       time.Duration
}

type LogsReport struct {
	Records []model.AuditRecord
	Stats   model.AuditStats
	Limit   int
}

type Service struct {
	cases Cases
	audit AuditReader
	now   func() time.Time
}

func NewService(cases Cases, audit AuditReader) *Service {
	return &Service{
		cases: cases,
		audit: audit,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Pending lists pending cases of one community, or of all communities when communityID is 0.
func (s *Service) Pending(communityID int64) Overview {
	now := s.now()
	timeout := s.cases.Timeout()

	overview := Overview{
		Pending:       make([]PendingCase, 0),
		ApprovedCount: s.cases.ApprovedCount(),
		Timeout:       timeout,
	}
	for _, c := range s.cases.Pending() {
		if communityID != 0 && c.CommunityID != communityID {
			continue
		}
		remaining := timeout - now.Sub(c.CreatedAt)
		if remaining < 0 {
			remaining = 0
		}
		overview.Pending = append(overview.Pending, PendingCase{Case: c, Remaining: remaining})
	}
	return overview
}

func (s *Service) Logs(ctx context.Context, communityID int64, limit int) (LogsReport, error) {
	limit = ClampLimit(limit)

	records, err := s.audit.ListRecent(ctx, communityID, limit)
	if err != nil {
		return LogsReport{}, err
	}
	if len(records) > limit {
		records = records[:limit]
	}

	stats, err := s.audit.Stats(ctx, communityID)
	if err != nil {
		return LogsReport{}, err
	}

	return LogsReport{Records: records, Stats: stats, Limit: limit}, nil
}

func (s *Service) History(ctx context.Context, entityID int64) ([]model.AuditRecord, error) {
	return s.audit.History(ctx, entityID)
}

func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLogsLimit
	case limit > MaxLogsLimit:
		return MaxLogsLimit
	default:
		return limit
	}
}
