package model

import (
	"time"

	"github.com/ivankudzin/botgate/internal/domain/enums"
)

type Principal struct {
	ID   int64
	Name string
}

type Case struct {
	ID              string
	EntityID        int64
	EntityName      string
	CommunityID     int64
	CommunityName   string
	EntityCreatedAt *time.Time
	Permissions     Permissions
	Inviter         *Principal
	CreatedAt       time.Time
	Deadline        time.Time
	Status          enums.CaseStatus
	Receipts        []Receipt
}

// Receipt marks a moderator who was actually sent the approval request.
type Receipt struct {
	ModeratorID int64
	ChatID      int64
	MessageID   int
	DeliveredAt time.Time
}

// AccountAgeDays returns nil when the platform did not report a creation time.
func (c Case) AccountAgeDays(now time.Time) *int {
	if c.EntityCreatedAt == nil || c.EntityCreatedAt.IsZero() {
		return nil
	}
	days := int(now.Sub(*c.EntityCreatedAt).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return &days
}

func (c Case) Remaining(now time.Time) time.Duration {
	remaining := c.Deadline.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
