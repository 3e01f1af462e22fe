package model

import "strings"

// Permissions is a bitmask of the rights an entity held in the community at join time.
type Permissions int64

const (
	PermChangeInfo Permissions = 1 << iota
	PermDeleteMessages
	PermRestrictMembers
	PermInviteUsers
	PermPinMessages
	PermPromoteMembers
	PermManageChat
	PermManageVideoChats
	PermPostMessages
	PermEditMessages
	PermAdministrator
)

var permissionNames = []struct {
	bit  Permissions
	name string
}{
	{PermAdministrator, "administrator"},
	{PermChangeInfo, "change_info"},
	{PermDeleteMessages, "delete_messages"},
	{PermRestrictMembers, "restrict_members"},
	{PermInviteUsers, "invite_users"},
	{PermPinMessages, "pin_messages"},
	{PermPromoteMembers, "promote_members"},
	{PermManageChat, "manage_chat"},
	{PermManageVideoChats, "manage_video_chats"},
	{PermPostMessages, "post_messages"},
	{PermEditMessages, "edit_messages"},
}

const dangerousPermissions = PermAdministrator | PermChangeInfo | PermDeleteMessages |
	PermRestrictMembers | PermPromoteMembers | PermManageChat

func (p Permissions) Has(bit Permissions) bool {
	return p&bit == bit
}

func (p Permissions) Names() []string {
	return p.filter(^Permissions(0))
}

func (p Permissions) Dangerous() []string {
	return p.filter(dangerousPermissions)
}

func (p Permissions) String() string {
	names := p.Names()
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

func (p Permissions) filter(mask Permissions) []string {
	result := make([]string, 0, len(permissionNames))
	for _, item := range permissionNames {
		if mask&item.bit == 0 {
			continue
		}
		if p.Has(item.bit) {
			result = append(result, item.name)
		}
	}
	return result
}
