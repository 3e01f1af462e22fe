package model

import (
	"time"

	"github.com/ivankudzin/botgate/internal/domain/enums"
)

type AuditRecord struct {
	ID             int64
	Action         enums.AuditAction
	EntityID       int64
	EntityName     string
	CommunityID    int64
	CommunityName  string
	ModeratorID    *int64
	ModeratorName  *string
	InviterID      *int64
	InviterName    *string
	Reason         string
	Permissions    int64
	AccountAgeDays *int
	CreatedAt      time.Time
}

type AuditCounts struct {
	Total      int64
	Approved   int64
	Rejected   int64
	AutoKicked int64
	Detected   int64
}

type AuditStats struct {
	Overall AuditCounts
	Recent  AuditCounts
}
