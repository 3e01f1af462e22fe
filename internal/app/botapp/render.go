package botapp

import (
	"fmt"
	"strings"

	"github.com/ivankudzin/botgate/internal/domain/enums"
	"github.com/ivankudzin/botgate/internal/domain/model"
	statussvc "github.com/ivankudzin/botgate/internal/services/status"
)

const (
	statusPendingShown = 5
	logsEntriesShown   = 10
	historyShown       = 5
)

func actionEmoji(action enums.AuditAction) string {
	switch action {
	case enums.AuditActionDetected:
		return "🔍"
	case enums.AuditActionApproved:
		return "✅"
	case enums.AuditActionRejected:
		return "❌"
	case enums.AuditActionAutoKicked:
		return "⏰"
	default:
		return "❓"
	}
}

func renderStatus(overview statussvc.Overview) string {
	var b strings.Builder
	b.WriteString("🤖 Bot Security Status\n\n")
	fmt.Fprintf(&b, "Pending approvals: %d\n", len(overview.Pending))
	fmt.Fprintf(&b, "Approved bots: %d\n", overview.ApprovedCount)
	fmt.Fprintf(&b, "Approval timeout: %ds\n", int(overview.Timeout.Seconds()))

	if len(overview.Pending) == 0 {
		return b.String()
	}

	b.WriteString("\nPending bots:\n")
	for i, p := range overview.Pending {
		if i == statusPendingShown {
			fmt.Fprintf(&b, "… and %d more\n", len(overview.Pending)-statusPendingShown)
			break
		}
		fmt.Fprintf(&b, "• %s (ID: %d) %s\n", p.Case.EntityName, p.Case.EntityID, model.FormatCountdown(p.Remaining))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderLogs(report statussvc.LogsReport, prefix string) string {
	if len(report.Records) == 0 {
		return "📋 Bot Action Logs\n\nNo bot actions recorded yet."
	}

	var b strings.Builder
	b.WriteString("📋 Bot Action Logs\n\n")
	writeCounts(&b, "📊 Overall", report.Stats.Overall)
	writeCounts(&b, "📈 Last 24 hours", report.Stats.Recent)

	shown := report.Records
	if len(shown) > logsEntriesShown {
		shown = shown[:logsEntriesShown]
	}
	fmt.Fprintf(&b, "🕒 Recent actions (showing %d of %d)\n", len(shown), len(report.Records))
	for _, rec := range shown {
		fmt.Fprintf(&b, "%s %s (%s)\n", actionEmoji(rec.Action), rec.EntityName, rec.Action)
		fmt.Fprintf(&b, "   └ %s by %s", rec.CreatedAt.UTC().Format("01/02 15:04"), moderatorName(rec))
		if rec.Action == enums.AuditActionDetected {
			fmt.Fprintf(&b, " | Invited by: %s", inviterName(rec))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nUse %slogs %d to see more entries (max %d)", prefix, report.Limit, statussvc.MaxLogsLimit)
	return b.String()
}

func writeCounts(b *strings.Builder, title string, c model.AuditCounts) {
	fmt.Fprintf(b, "%s\n", title)
	fmt.Fprintf(b, "Total: %d | Detected: %d\n", c.Total, c.Detected)
	fmt.Fprintf(b, "Approved: %d | Rejected: %d | Auto-kicked: %d\n\n", c.Approved, c.Rejected, c.AutoKicked)
}

func renderHistory(entityID int64, records []model.AuditRecord) string {
	if len(records) == 0 {
		return fmt.Sprintf("❌ No history found for bot ID: %d", entityID)
	}

	latest := records[0]
	var b strings.Builder
	fmt.Fprintf(&b, "🤖 Bot History: %s\nBot ID: %d\n\n", latest.EntityName, entityID)
	if latest.AccountAgeDays != nil {
		fmt.Fprintf(&b, "Account age: %d days\n", *latest.AccountAgeDays)
	} else {
		b.WriteString("Account age: unknown\n")
	}
	fmt.Fprintf(&b, "Invited by: %s\n", inviterName(latest))
	fmt.Fprintf(&b, "Permissions: %s\n\n", model.Permissions(latest.Permissions))

	fmt.Fprintf(&b, "📜 Action history (%d entries)\n", len(records))
	for i, rec := range records {
		if i == historyShown {
			fmt.Fprintf(&b, "\nShowing %d most recent of %d total entries", historyShown, len(records))
			break
		}
		fmt.Fprintf(&b, "%s %s\n", actionEmoji(rec.Action), rec.Action)
		fmt.Fprintf(&b, "   └ %s by %s\n", rec.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC"), moderatorName(rec))
		if rec.Reason != "" {
			fmt.Fprintf(&b, "   └ Reason: %s\n", rec.Reason)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func moderatorName(rec model.AuditRecord) string {
	if rec.ModeratorName == nil || *rec.ModeratorName == "" {
		return "System"
	}
	return *rec.ModeratorName
}

func inviterName(rec model.AuditRecord) string {
	if rec.InviterName == nil || *rec.InviterName == "" {
		return "Unknown"
	}
	return *rec.InviterName
}
