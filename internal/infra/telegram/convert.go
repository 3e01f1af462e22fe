package telegram

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ivankudzin/botgate/internal/domain/model"
)

func isPresent(member tgbotapi.ChatMember) bool {
	switch member.Status {
	case "creator", "administrator", "member":
		return true
	case "restricted":
		return member.IsMember
	default:
		return false
	}
}

func permissionsOf(member tgbotapi.ChatMember) model.Permissions {
	var perms model.Permissions
	set := func(ok bool, bit model.Permissions) {
		if ok {
			perms |= bit
		}
	}

	set(member.IsAdministrator() || member.IsCreator(), model.PermAdministrator)
	set(member.CanChangeInfo, model.PermChangeInfo)
	set(member.CanDeleteMessages, model.PermDeleteMessages)
	set(member.CanRestrictMembers, model.PermRestrictMembers)
	set(member.CanInviteUsers, model.PermInviteUsers)
	set(member.CanPinMessages, model.PermPinMessages)
	set(member.CanPromoteMembers, model.PermPromoteMembers)
	set(member.CanManageChat, model.PermManageChat)
	set(member.CanManageVoiceChats, model.PermManageVideoChats)
	set(member.CanPostMessages, model.PermPostMessages)
	set(member.CanEditMessages, model.PermEditMessages)
	return perms
}

// memberOf exposes the admin title and status as roles; the creator and admins who can promote are elevated.
func memberOf(member tgbotapi.ChatMember) model.Member {
	result := model.Member{Roles: make([]string, 0, 2)}
	if member.User != nil {
		result.ID = member.User.ID
		result.Name = displayName(member.User)
		result.IsBot = member.User.IsBot
	}
	if title := strings.TrimSpace(member.CustomTitle); title != "" {
		result.Roles = append(result.Roles, title)
	}
	if member.Status != "" {
		result.Roles = append(result.Roles, member.Status)
	}
	result.Elevated = member.IsCreator() || (member.IsAdministrator() && member.CanPromoteMembers)
	return result
}

func displayName(user *tgbotapi.User) string {
	if user == nil {
		return ""
	}
	if user.UserName != "" {
		return "@" + user.UserName
	}
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		return "id" + strconv.FormatInt(user.ID, 10)
	}
	return name
}

func chatTitle(chat tgbotapi.Chat) string {
	if chat.Title != "" {
		return chat.Title
	}
	if chat.UserName != "" {
		return "@" + chat.UserName
	}
	return "chat " + strconv.FormatInt(chat.ID, 10)
}
