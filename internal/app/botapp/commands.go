package botapp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ivankudzin/botgate/internal/domain/enums"
	"github.com/ivankudzin/botgate/internal/domain/model"
	"github.com/ivankudzin/botgate/internal/domain/platform"
	tginfra "github.com/ivankudzin/botgate/internal/infra/telegram"
	"github.com/ivankudzin/botgate/internal/services/approval"
	"github.com/ivankudzin/botgate/internal/services/responses"
	statussvc "github.com/ivankudzin/botgate/internal/services/status"
)

const (
	noPermissionText = "❌ You don't have permission to use this command."
	groupOnlyText    = "❌ This command only works in a group chat."
	notPendingText   = "❌ Bot not found in pending list."
	logsErrorText    = "❌ Error retrieving logs. Please try again later."
	historyErrorText = "❌ Error retrieving bot history. Please try again later."
)

type command struct {
	name string
	args []string
}

// parseCommand accepts "<prefix>name[@bot] args...". Commands addressed to another bot are skipped.
func parseCommand(text, prefix, botUsername string) (command, bool) {
	text = strings.TrimSpace(text)
	if prefix == "" || !strings.HasPrefix(text, prefix) {
		return command{}, false
	}

	fields := strings.Fields(strings.TrimPrefix(text, prefix))
	if len(fields) == 0 {
		return command{}, false
	}

	name := fields[0]
	if at := strings.IndexByte(name, '@'); at >= 0 {
		target := name[at+1:]
		if botUsername != "" && !strings.EqualFold(target, botUsername) {
			return command{}, false
		}
		name = name[:at]
	}
	if name == "" {
		return command{}, false
	}

	return command{name: strings.ToLower(name), args: fields[1:]}, true
}

type replier interface {
	Reply(ctx context.Context, chatID int64, replyTo int, text string) error
}

type caseLookup interface {
	Lookup(entityID int64) (model.Case, bool)
}

type decider interface {
	HandleCommand(ctx context.Context, cmd responses.CommandResponse) (approval.ResolveResult, bool)
}

type Commands struct {
	prefix  string
	botName string
	auth    responses.Authorizer
	cases   caseLookup
	decide  decider
	status  *statussvc.Service
	replies replier
	log     *zap.Logger
}

func NewCommands(prefix, botName string, auth responses.Authorizer, cases caseLookup, decide decider, status *statussvc.Service, replies replier, log *zap.Logger) *Commands {
	if log == nil {
		log = zap.NewNop()
	}
	return &Commands{
		prefix:  prefix,
		botName: botName,
		auth:    auth,
		cases:   cases,
		decide:  decide,
		status:  status,
		replies: replies,
		log:     log,
	}
}

// Handle runs a chat command. Messages that are not commands for this bot are ignored.
func (c *Commands) Handle(ctx context.Context, msg tginfra.MessageUpdate) error {
	cmd, ok := parseCommand(msg.Text, c.prefix, c.botName)
	if !ok {
		return nil
	}

	switch cmd.name {
	case "status", "botstatus", "approve", "reject", "logs", "history", "bothistory":
	default:
		return nil
	}

	actor := model.Principal{ID: msg.UserID, Name: msg.UserName}
	if msg.IsPrivate() {
		switch cmd.name {
		case "approve":
			return c.respond(ctx, msg, actor, cmd.args, enums.ResponseApprove)
		case "reject":
			return c.respond(ctx, msg, actor, cmd.args, enums.ResponseReject)
		default:
			return c.reply(ctx, msg, groupOnlyText)
		}
	}

	allowed, err := c.auth.IsModerator(ctx, msg.ChatID, msg.UserID)
	if err != nil {
		c.log.Warn("moderator check failed",
			zap.Int64("chat_id", msg.ChatID),
			zap.Int64("user_id", msg.UserID),
			zap.Error(err),
		)
	}
	if err != nil || !allowed {
		return c.reply(ctx, msg, noPermissionText)
	}

	switch cmd.name {
	case "status", "botstatus":
		return c.reply(ctx, msg, renderStatus(c.status.Pending(msg.ChatID)))
	case "approve":
		return c.respond(ctx, msg, actor, cmd.args, enums.ResponseApprove)
	case "reject":
		return c.respond(ctx, msg, actor, cmd.args, enums.ResponseReject)
	case "logs":
		return c.logs(ctx, msg, cmd.args)
	default:
		return c.history(ctx, msg, cmd.args)
	}
}

// respond replies the same way for unknown cases and unauthorized responders.
func (c *Commands) respond(ctx context.Context, msg tginfra.MessageUpdate, actor model.Principal, args []string, response enums.Response) error {
	entityID, ok := parseID(args)
	if !ok {
		return c.reply(ctx, msg, fmt.Sprintf("Usage: %s%s <bot id>", c.prefix, response))
	}

	pending, ok := c.cases.Lookup(entityID)
	if !ok {
		return c.reply(ctx, msg, notPendingText)
	}

	result, ok := c.decide.HandleCommand(ctx, responses.CommandResponse{EntityID: entityID, Actor: actor, Response: response})
	if !ok {
		return c.reply(ctx, msg, notPendingText)
	}

	if response == enums.ResponseApprove {
		return c.reply(ctx, msg, fmt.Sprintf("✅ Bot %s has been approved.", pending.EntityName))
	}
	return c.reply(ctx, msg, rejectedText(pending.EntityName, result.KickErr))
}

// rejectedText reports the removal outcome. A bot that already left counts as removed.
func rejectedText(name string, kickErr error) string {
	switch {
	case kickErr == nil, errors.Is(kickErr, platform.ErrNotFound):
		return fmt.Sprintf("❌ Bot %s has been rejected and kicked.", name)
	case errors.Is(kickErr, platform.ErrPermissionDenied):
		return fmt.Sprintf("⚠️ Bot %s has been rejected but could not be removed: I need permission to ban members.", name)
	default:
		return fmt.Sprintf("⚠️ Bot %s has been rejected but could not be removed. Please remove it manually.", name)
	}
}

func (c *Commands) logs(ctx context.Context, msg tginfra.MessageUpdate, args []string) error {
	limit := 0
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return c.reply(ctx, msg, fmt.Sprintf("Usage: %slogs [limit]", c.prefix))
		}
		limit = v
	}

	report, err := c.status.Logs(ctx, msg.ChatID, limit)
	if err != nil {
		c.log.Error("load audit log", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
		return c.reply(ctx, msg, logsErrorText)
	}
	return c.reply(ctx, msg, renderLogs(report, c.prefix))
}

func (c *Commands) history(ctx context.Context, msg tginfra.MessageUpdate, args []string) error {
	entityID, ok := parseID(args)
	if !ok {
		return c.reply(ctx, msg, fmt.Sprintf("Usage: %shistory <bot id>", c.prefix))
	}

	records, err := c.status.History(ctx, entityID)
	if err != nil {
		c.log.Error("load bot history", zap.Int64("entity_id", entityID), zap.Error(err))
		return c.reply(ctx, msg, historyErrorText)
	}
	return c.reply(ctx, msg, renderHistory(entityID, records))
}

func (c *Commands) reply(ctx context.Context, msg tginfra.MessageUpdate, text string) error {
	return c.replies.Reply(ctx, msg.ChatID, msg.MessageID, text)
}

func parseID(args []string) (int64, bool) {
	if len(args) == 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
