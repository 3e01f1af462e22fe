package audit

import (
	"context"
	"time"

	"github.com/ivankudzin/botgate/internal/domain/enums"
	"github.com/ivankudzin/botgate/internal/domain/model"
)

const RecentWindow = 24 * time.Hour

type Repo interface {
	Insert(context.Context, model.AuditRecord) (int64, error)
	ListRecent(ctx context.Context, communityID int64, limit int) ([]model.AuditRecord, error)
	Stats(ctx context.Context, communityID int64, since time.Time) (model.AuditStats, error)
	History(ctx context.Context, entityID int64) ([]model.AuditRecord, error)
}

type Service struct {
	repo Repo
	now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Record(ctx context.Context, record model.AuditRecord) error {
	if s.repo == nil {
		return nil
	}
	_, err := s.repo.Insert(ctx, record)
	return err
}

func (s *Service) ListRecent(ctx context.Context, communityID int64, limit int) ([]model.AuditRecord, error) {
	if s.repo == nil {
		return []model.AuditRecord{}, nil
	}
	return s.repo.ListRecent(ctx, communityID, limit)
}

// Stats counts the community's whole history and the trailing RecentWindow.
func (s *Service) Stats(ctx context.Context, communityID int64) (model.AuditStats, error) {
	if s.repo == nil {
		return model.AuditStats{}, nil
	}
	return s.repo.Stats(ctx, communityID, s.now().Add(-RecentWindow))
}

func (s *Service) History(ctx context.Context, entityID int64) ([]model.AuditRecord, error) {
	if s.repo == nil {
		return []model.AuditRecord{}, nil
	}
	return s.repo.History(ctx, entityID)
}

// NewRecord builds the audit entry for a case. moderator may be nil for system actions.
// CreatedAt is left zero so the store stamps the row; now only feeds the account age.
func NewRecord(c model.Case, action enums.AuditAction, moderator *model.Principal, reason string, now time.Time) model.AuditRecord {
	record := model.AuditRecord{
		Action:         action,
		EntityID:       c.EntityID,
		EntityName:     c.EntityName,
		CommunityID:    c.CommunityID,
		CommunityName:  c.CommunityName,
		Reason:         reason,
		Permissions:    int64(c.Permissions),
		AccountAgeDays: c.AccountAgeDays(now),
	}
	if moderator != nil {
		id, name := moderator.ID, moderator.Name
		record.ModeratorID = &id
		record.ModeratorName = &name
	}
	if c.Inviter != nil {
		id, name := c.Inviter.ID, c.Inviter.Name
		record.InviterID = &id
		record.InviterName = &name
	}
	return record
}
