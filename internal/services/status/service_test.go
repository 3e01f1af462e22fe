package status

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ivankudzin/botgate/internal/domain/enums"
	"github.com/ivankudzin/botgate/internal/domain/model"
)

type fakeCases struct {
	pending  []model.Case
	timeout  time.Duration
	approved int
}

func (f fakeCases) Pending() []model.Case  { return f.pending }
func (f fakeCases) Timeout() time.Duration { return f.timeout }
func (f fakeCases) ApprovedCount() int     { return f.approved }

type fakeAudit struct {
	records   []model.AuditRecord
	lastLimit int
	err       error
}

func (f *fakeAudit) ListRecent(_ context.Context, _ int64, limit int) ([]model.AuditRecord, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if len(f.records) > limit {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func (f *fakeAudit) Stats(context.Context, int64) (model.AuditStats, error) {
	return model.AuditStats{Overall: model.AuditCounts{Total: int64(len(f.records))}}, nil
}

func (f *fakeAudit) History(_ context.Context, entityID int64) ([]model.AuditRecord, error) {
	var result []model.AuditRecord
	for _, r := range f.records {
		if r.EntityID == entityID {
			result = append(result, r)
		}
	}
	return result, nil
}

func TestPendingComputesRemaining(t *testing.T) {
	now := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)
	cases := fakeCases{
		timeout:  10 * time.Second,
		approved: 3,
		pending: []model.Case{
			{EntityID: 1, CommunityID: -1, CreatedAt: now.Add(-4 * time.Second)},
			{EntityID: 2, CommunityID: -1, CreatedAt: now.Add(-15 * time.Second)},
			{EntityID: 3, CommunityID: -2, CreatedAt: now},
		},
	}
	svc := NewService(cases, &fakeAudit{})
	svc.now = func() time.Time { return now }

	overview := svc.Pending(-1)
	if len(overview.Pending) != 2 {
		t.Fatalf("expected 2 pending cases in community, got %d", len(overview.Pending))
	}
	if overview.Pending[0].Remaining != 6*time.Second {
		t.Fatalf("expected 6s remaining, got %s", overview.Pending[0].Remaining)
	}
	if overview.Pending[1].Remaining != 0 {
		t.Fatalf("expected remaining clamped to zero, got %s", overview.Pending[1].Remaining)
	}
	if overview.ApprovedCount != 3 {
		t.Fatalf("expected approved count 3, got %d", overview.ApprovedCount)
	}

	if all := svc.Pending(0); len(all.Pending) != 3 {
		t.Fatalf("expected all 3 pending cases, got %d", len(all.Pending))
	}
}

func TestLogsClampsLimit(t *testing.T) {
	audit := &fakeAudit{}
	for i := 0; i < 80; i++ {
		audit.records = append(audit.records, model.AuditRecord{ID: int64(i), Action: enums.AuditActionDetected})
	}
	svc := NewService(fakeCases{}, audit)

	report, err := svc.Logs(context.Background(), -1, 75)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if report.Limit != 50 || audit.lastLimit != 50 || len(report.Records) != 50 {
		t.Fatalf("expected clamp to 50, got limit=%d repo=%d records=%d", report.Limit, audit.lastLimit, len(report.Records))
	}
	if report.Stats.Overall.Total != 80 {
		t.Fatalf("unexpected stats: %+v", report.Stats)
	}

	report, err = svc.Logs(context.Background(), -1, 0)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if report.Limit != DefaultLogsLimit || len(report.Records) != DefaultLogsLimit {
		t.Fatalf("expected default limit, got %d", report.Limit)
	}
}

func TestLogsPropagatesError(t *testing.T) {
	svc := NewService(fakeCases{}, &fakeAudit{err: errors.New("db down")})
	if _, err := svc.Logs(context.Background(), -1, 10); err == nil {
		t.Fatal("expected error")
	}
}

func TestClampLimit(t *testing.T) {
	cases := map[int]int{-5: 20, 0: 20, 1: 1, 50: 50, 51: 50, 75: 50}
	for in, want := range cases {
		if got := ClampLimit(in); got != want {
			t.Fatalf("ClampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestHistoryFiltersEntity(t *testing.T) {
	audit := &fakeAudit{records: []model.AuditRecord{{EntityID: 1}, {EntityID: 2}, {EntityID: 1}}}
	svc := NewService(fakeCases{}, audit)

	records, err := svc.History(context.Background(), 1)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}
