package model

import "time"

type JoinEvent struct {
	EntityID        int64
	EntityName      string
	IsAutomated     bool
	CommunityID     int64
	CommunityName   string
	EntityCreatedAt *time.Time
	Permissions     Permissions
	Inviter         *Principal
	ReceivedAt      time.Time
}
