// Package platform declares what the approval core needs from the chat platform.
package platform

import (
	"context"
	"errors"

	"github.com/ivankudzin/botgate/internal/domain/model"
)

var (
	ErrPermissionDenied = errors.New("platform: permission denied")
	ErrNotFound         = errors.New("platform: not found")
)

type MemberLister interface {
	// ListModeratorCandidates returns members that may hold moderator rights in the community.
	ListModeratorCandidates(ctx context.Context, communityID int64) ([]model.Member, error)
	GetMember(ctx context.Context, communityID, userID int64) (model.Member, error)
}

// SentMessage identifies a delivered message so it can be correlated or edited later.
type SentMessage struct {
	ChatID    int64
	MessageID int
}

type Messenger interface {
	SendRequest(ctx context.Context, userID int64, text string) (SentMessage, error)
	SendText(ctx context.Context, userID int64, text string) (SentMessage, error)
	EditResolved(ctx context.Context, msg SentMessage, text string) error
}

type Remover interface {
	Kick(ctx context.Context, communityID, entityID int64, reason string) error
}

type InviterLookup interface {
	LookupInviter(ctx context.Context, communityID, entityID int64) (*model.Principal, error)
}
