package dto

import "time"

type HealthResponse struct {
	Status string `json:"status"`
}

type PendingResponse struct {
	Items          []PendingCase `json:"items"`
	ApprovedCount  int           `json:"approved_count"`
	TimeoutSeconds int64         `json:"timeout_seconds"`
}

type PendingCase struct {
	CaseID           string     `json:"case_id"`
	EntityID         int64      `json:"entity_id"`
	EntityName       string     `json:"entity_name"`
	CommunityID      int64      `json:"community_id"`
	CommunityName    string     `json:"community_name"`
	InviterID        *int64     `json:"inviter_id"`
	InviterName      *string    `json:"inviter_name"`
	Permissions      []string   `json:"permissions"`
	DangerousPerms   []string   `json:"dangerous_permissions"`
	CreatedAt        time.Time  `json:"created_at"`
	Deadline         time.Time  `json:"deadline"`
	RemainingSeconds int64      `json:"remaining_seconds"`
	Notified         int        `json:"notified"`
	EntityCreatedAt  *time.Time `json:"entity_created_at"`
}

type AuditRecord struct {
	ID             int64     `json:"id"`
	Action         string    `json:"action"`
	EntityID       int64     `json:"entity_id"`
	EntityName     string    `json:"entity_name"`
	CommunityID    int64     `json:"community_id"`
	CommunityName  string    `json:"community_name"`
	ModeratorID    *int64    `json:"moderator_id"`
	ModeratorName  *string   `json:"moderator_name"`
	InviterID      *int64    `json:"inviter_id"`
	InviterName    *string   `json:"inviter_name"`
	Reason         string    `json:"reason"`
	Permissions    int64     `json:"permissions"`
	AccountAgeDays *int      `json:"account_age_days"`
	CreatedAt      time.Time `json:"created_at"`
}

type AuditCounts struct {
	Total      int64 `json:"total"`
	Approved   int64 `json:"approved"`
	Rejected   int64 `json:"rejected"`
	AutoKicked int64 `json:"auto_kicked"`
	Detected   int64 `json:"detected"`
}

type LogsResponse struct {
	Items   []AuditRecord `json:"items"`
	Limit   int           `json:"limit"`
	Overall AuditCounts   `json:"overall"`
	Recent  AuditCounts   `json:"last_24h"`
}

type HistoryResponse struct {
	EntityID int64         `json:"entity_id"`
	Items    []AuditRecord `json:"items"`
}
