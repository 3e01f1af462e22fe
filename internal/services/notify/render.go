package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/ivankudzin/botgate/internal/domain/enums"
	"github.com/ivankudzin/botgate/internal/domain/model"
)

const timeLayout = "2006-01-02 15:04:05 UTC"

func RequestText(c model.Case, now time.Time) string {
	var b strings.Builder
	b.WriteString("🚨 New bot detected\n")
	fmt.Fprintf(&b, "A new bot has joined %s and requires approval.\n\n", c.CommunityName)
	fmt.Fprintf(&b, "Name: %s\n", c.EntityName)
	fmt.Fprintf(&b, "ID: %d\n", c.EntityID)
	if c.EntityCreatedAt != nil {
		fmt.Fprintf(&b, "Account created: %s\n", c.EntityCreatedAt.UTC().Format(timeLayout))
	} else {
		b.WriteString("Account created: unknown\n")
	}
	if c.Inviter != nil {
		fmt.Fprintf(&b, "Added by: %s (%d)\n", c.Inviter.Name, c.Inviter.ID)
	} else {
		b.WriteString("Added by: unknown\n")
	}
	fmt.Fprintf(&b, "Permissions: %s\n", c.Permissions)
	if dangerous := c.Permissions.Dangerous(); len(dangerous) > 0 {
		fmt.Fprintf(&b, "⚠️ Dangerous permissions: %s\n", strings.Join(dangerous, ", "))
	}
	fmt.Fprintf(&b, "\n%s\n", model.FormatCountdown(c.Remaining(now)))
	b.WriteString("The bot is removed automatically if nobody approves it in time.")
	return b.String()
}

func ResolvedText(c model.Case, status enums.CaseStatus, actor *model.Principal) string {
	var verdict string
	switch status {
	case enums.CaseStatusApproved:
		verdict = "✅ Approved"
	case enums.CaseStatusRejected:
		verdict = "❌ Rejected"
	case enums.CaseStatusAutoRejected:
		verdict = "⏰ Auto-rejected, no approval received"
	default:
		verdict = string(status)
	}
	text := fmt.Sprintf("%s: %s (%d) in %s", verdict, c.EntityName, c.EntityID, c.CommunityName)
	if actor != nil {
		text += fmt.Sprintf("\nBy: %s", actor.Name)
	}
	return text
}

func ConfirmText(c model.Case) string {
	return fmt.Sprintf("✅ Bot approved: %s (%d) may stay in %s.", c.EntityName, c.EntityID, c.CommunityName)
}

func KickDeniedText(c model.Case) string {
	return fmt.Sprintf(
		"⚠️ Could not remove bot %s (%d) from %s: the gatekeeper lacks permission to ban members. Remove it manually and check the bot's admin rights.",
		c.EntityName, c.EntityID, c.CommunityName,
	)
}
