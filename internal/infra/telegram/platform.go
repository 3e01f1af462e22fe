package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/ivankudzin/botgate/internal/domain/model"
	"github.com/ivankudzin/botgate/internal/domain/platform"
)

const (
	inviterCacheSize    = 1024
	defaultInviterTTL   = 10 * time.Minute
	defaultInviterWait  = 1500 * time.Millisecond
	inviterPollInterval = 100 * time.Millisecond
)

type inviterKey struct {
	chatID int64
	userID int64
}

// Platform adapts the Bot API to the gatekeeper's platform interfaces.
type Platform struct {
	bot         *Bot
	inviters    *expirable.LRU[inviterKey, model.Principal]
	inviterWait time.Duration
}

var (
	_ platform.MemberLister  = (*Platform)(nil)
	_ platform.Messenger     = (*Platform)(nil)
	_ platform.Remover       = (*Platform)(nil)
	_ platform.InviterLookup = (*Platform)(nil)
)

func NewPlatform(bot *Bot, inviterTTL time.Duration) *Platform {
	if inviterTTL <= 0 {
		inviterTTL = defaultInviterTTL
	}
	return &Platform{
		bot:         bot,
		inviters:    expirable.NewLRU[inviterKey, model.Principal](inviterCacheSize, nil, inviterTTL),
		inviterWait: defaultInviterWait,
	}
}

func (p *Platform) ListModeratorCandidates(ctx context.Context, communityID int64) ([]model.Member, error) {
	admins, err := p.bot.api.GetChatAdministrators(tgbotapi.ChatAdministratorsConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: communityID},
	})
	if err != nil {
		return nil, fmt.Errorf("get chat administrators: %w", classify(err))
	}

	result := make([]model.Member, 0, len(admins))
	for _, admin := range admins {
		result = append(result, memberOf(admin))
	}

	_ = ctx
	return result, nil
}

func (p *Platform) GetMember(ctx context.Context, communityID, userID int64) (model.Member, error) {
	member, err := p.bot.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: communityID, UserID: userID},
	})
	if err != nil {
		return model.Member{}, fmt.Errorf("get chat member: %w", classify(err))
	}
	if !isPresent(member) {
		return model.Member{}, fmt.Errorf("user %d is not in chat %d: %w", userID, communityID, platform.ErrNotFound)
	}

	_ = ctx
	return memberOf(member), nil
}

func (p *Platform) SendRequest(ctx context.Context, userID int64, text string) (platform.SentMessage, error) {
	sent, err := p.bot.SendApprovalRequest(ctx, userID, text)
	if err != nil {
		return platform.SentMessage{}, err
	}
	return sentMessage(sent, userID), nil
}

func (p *Platform) SendText(ctx context.Context, userID int64, text string) (platform.SentMessage, error) {
	sent, err := p.bot.SendText(ctx, userID, text)
	if err != nil {
		return platform.SentMessage{}, err
	}
	return sentMessage(sent, userID), nil
}

func (p *Platform) EditResolved(ctx context.Context, msg platform.SentMessage, text string) error {
	return p.bot.EditText(ctx, msg.ChatID, msg.MessageID, text)
}

// Kick bans and immediately unbans so the entity is removed but may be re-added later.
func (p *Platform) Kick(ctx context.Context, communityID, entityID int64, reason string) error {
	member := tgbotapi.ChatMemberConfig{ChatID: communityID, UserID: entityID}

	if _, err := p.bot.api.Request(tgbotapi.BanChatMemberConfig{ChatMemberConfig: member}); err != nil {
		return fmt.Errorf("ban chat member: %w", classify(err))
	}
	if _, err := p.bot.api.Request(tgbotapi.UnbanChatMemberConfig{ChatMemberConfig: member, OnlyIfBanned: true}); err != nil {
		p.bot.log.Warn("unban after kick failed",
			zap.Int64("chat_id", communityID),
			zap.Int64("user_id", entityID),
			zap.Error(classify(err)),
		)
	}

	p.bot.log.Debug("chat member kicked",
		zap.Int64("chat_id", communityID),
		zap.Int64("user_id", entityID),
		zap.String("reason", reason),
	)
	_ = ctx
	return nil
}

func (p *Platform) RememberInviter(chatID int64, inviter model.Principal, userIDs []int64) {
	for _, userID := range userIDs {
		if userID == inviter.ID {
			continue
		}
		p.inviters.Add(inviterKey{chatID: chatID, userID: userID}, inviter)
	}
}

// LookupInviter waits briefly for the join service message, which may arrive after the membership update.
// A nil principal with a nil error means the inviter is unknown.
func (p *Platform) LookupInviter(ctx context.Context, communityID, entityID int64) (*model.Principal, error) {
	key := inviterKey{chatID: communityID, userID: entityID}
	deadline := time.NewTimer(p.inviterWait)
	defer deadline.Stop()
	ticker := time.NewTicker(inviterPollInterval)
	defer ticker.Stop()

	for {
		if inviter, ok := p.inviters.Get(key); ok {
			return &inviter, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, nil
		case <-ticker.C:
		}
	}
}

func sentMessage(msg tgbotapi.Message, fallbackChatID int64) platform.SentMessage {
	chatID := fallbackChatID
	if msg.Chat != nil {
		chatID = msg.Chat.ID
	}
	return platform.SentMessage{ChatID: chatID, MessageID: msg.MessageID}
}
