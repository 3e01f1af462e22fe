package moderators

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ivankudzin/botgate/internal/domain/model"
	"github.com/ivankudzin/botgate/internal/domain/platform"
)

type Directory struct {
	members       platform.MemberLister
	targetRole    string
	fallbackRoles []string
}

// NewDirectory matches members against targetRole when it is set and against fallbackRoles otherwise.
// Elevated members always qualify.
func NewDirectory(members platform.MemberLister, targetRole string, fallbackRoles []string) *Directory {
	roles := make([]string, 0, len(fallbackRoles))
	for _, role := range fallbackRoles {
		if trimmed := strings.TrimSpace(role); trimmed != "" {
			roles = append(roles, trimmed)
		}
	}
	return &Directory{
		members:       members,
		targetRole:    strings.TrimSpace(targetRole),
		fallbackRoles: roles,
	}
}

func (d *Directory) Moderators(ctx context.Context, communityID int64) ([]model.Member, error) {
	candidates, err := d.members.ListModeratorCandidates(ctx, communityID)
	if err != nil {
		return nil, fmt.Errorf("list moderator candidates: %w", err)
	}

	result := make([]model.Member, 0, len(candidates))
	seen := make(map[int64]struct{}, len(candidates))
	for _, member := range candidates {
		if !d.Qualifies(member) {
			continue
		}
		if _, ok := seen[member.ID]; ok {
			continue
		}
		seen[member.ID] = struct{}{}
		result = append(result, member)
	}
	return result, nil
}

// IsModerator re-reads the principal's membership, so revoked rights take effect immediately.
func (d *Directory) IsModerator(ctx context.Context, communityID, userID int64) (bool, error) {
	member, err := d.members.GetMember(ctx, communityID, userID)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get member: %w", err)
	}
	return d.Qualifies(member), nil
}

func (d *Directory) Qualifies(member model.Member) bool {
	if member.IsBot {
		return false
	}
	if member.Elevated {
		return true
	}
	if d.targetRole != "" {
		return hasRole(member.Roles, d.targetRole)
	}
	for _, role := range d.fallbackRoles {
		if hasRole(member.Roles, role) {
			return true
		}
	}
	return false
}

func hasRole(roles []string, want string) bool {
	for _, role := range roles {
		if strings.EqualFold(strings.TrimSpace(role), want) {
			return true
		}
	}
	return false
}
