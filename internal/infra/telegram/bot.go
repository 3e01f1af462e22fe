package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/botgate/internal/domain/model"
)

const (
	CallbackApprove = "gate:approve"
	CallbackReject  = "gate:reject"
)

// botAPI is the subset of *tgbotapi.BotAPI the gatekeeper uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatAdministrators(config tgbotapi.ChatAdministratorsConfig) ([]tgbotapi.ChatMember, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Bot struct {
	api         botAPI
	username    string
	pollTimeout int
	log         *zap.Logger
}

type JoinUpdate struct {
	ChatID      int64
	ChatTitle   string
	UserID      int64
	UserName    string
	IsBot       bool
	Inviter     *model.Principal
	Permissions model.Permissions
	At          time.Time
}

type MessageUpdate struct {
	ChatID    int64
	ChatType  string
	ChatTitle string
	MessageID int
	UserID    int64
	UserName  string
	Text      string
}

func (u MessageUpdate) IsPrivate() bool {
	return u.ChatType == "private"
}

// MembersAddedUpdate comes from the join service message and names who added the users.
type MembersAddedUpdate struct {
	ChatID  int64
	Inviter model.Principal
	UserIDs []int64
}

type CallbackUpdate struct {
	CallbackID string
	ChatID     int64
	MessageID  int
	UserID     int64
	UserName   string
	Data       string
}

type Handlers struct {
	OnJoin         func(context.Context, JoinUpdate) error
	OnMembersAdded func(context.Context, MembersAddedUpdate) error
	OnMessage      func(context.Context, MessageUpdate) error
	OnCallback     func(context.Context, CallbackUpdate) error
}

func NewBot(token string, pollTimeout int, log *zap.Logger) (*Bot, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}

	api, err := tgbotapi.NewBotAPI(strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("create telegram bot api: %w", err)
	}

	return newBot(api, api.Self.UserName, pollTimeout, log), nil
}

func newBot(api botAPI, username string, pollTimeout int, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	if pollTimeout <= 0 {
		pollTimeout = 30
	}
	return &Bot{api: api, username: username, pollTimeout: pollTimeout, log: log}
}

func (b *Bot) Username() string {
	return b.username
}

// Listen dispatches every update on its own goroutine and waits for in-flight handlers before returning.
func (b *Bot) Listen(ctx context.Context, handlers Handlers) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = b.pollTimeout
	updateCfg.AllowedUpdates = []string{"message", "callback_query", "chat_member"}
	updates := b.api.GetUpdatesChan(updateCfg)
	defer b.api.StopReceivingUpdates()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func(update tgbotapi.Update) {
				defer wg.Done()
				b.handle(ctx, update, handlers)
			}(update)
		}
	}
}

func (b *Bot) handle(ctx context.Context, update tgbotapi.Update, handlers Handlers) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("telegram update handler panicked", zap.Int("update_id", update.UpdateID), zap.Any("panic", r))
		}
	}()

	var err error
	switch {
	case update.ChatMember != nil && handlers.OnJoin != nil:
		if join, ok := joinFromChatMember(update.ChatMember); ok {
			err = handlers.OnJoin(ctx, join)
		}
	case update.Message != nil && update.Message.From != nil && len(update.Message.NewChatMembers) > 0:
		if handlers.OnMembersAdded != nil {
			err = handlers.OnMembersAdded(ctx, membersAddedUpdate(update.Message))
		}
	case update.Message != nil && update.Message.From != nil && handlers.OnMessage != nil:
		err = handlers.OnMessage(ctx, messageUpdate(update.Message))
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil && handlers.OnCallback != nil:
		err = handlers.OnCallback(ctx, callbackUpdate(update.CallbackQuery))
	}
	if err != nil {
		b.log.Warn("telegram update handler failed", zap.Int("update_id", update.UpdateID), zap.Error(err))
	}
}

func (b *Bot) SendText(ctx context.Context, chatID int64, text string) (tgbotapi.Message, error) {
	if chatID == 0 {
		return tgbotapi.Message{}, fmt.Errorf("chat id is required")
	}

	msg := tgbotapi.NewMessage(chatID, text)
	sent, err := b.api.Send(msg)
	if err != nil {
		return tgbotapi.Message{}, fmt.Errorf("send telegram message: %w", classify(err))
	}

	_ = ctx
	return sent, nil
}

func (b *Bot) Reply(ctx context.Context, chatID int64, replyTo int, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyTo
	msg.AllowSendingWithoutReply = true
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram reply: %w", classify(err))
	}

	_ = ctx
	return nil
}

func (b *Bot) SendApprovalRequest(ctx context.Context, chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", CallbackApprove),
			tgbotapi.NewInlineKeyboardButtonData("❌ Reject", CallbackReject),
		),
	)

	sent, err := b.api.Send(msg)
	if err != nil {
		return tgbotapi.Message{}, fmt.Errorf("send approval request: %w", classify(err))
	}

	_ = ctx
	return sent, nil
}

// EditText replaces a message's text and drops its inline keyboard.
func (b *Bot) EditText(ctx context.Context, chatID int64, messageID int, text string) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if _, err := b.api.Request(edit); err != nil {
		return fmt.Errorf("edit telegram message: %w", classify(err))
	}

	_ = ctx
	return nil
}

func (b *Bot) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if strings.TrimSpace(callbackID) == "" {
		return nil
	}

	cfg := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.api.Request(cfg); err != nil {
		return fmt.Errorf("answer callback query: %w", classify(err))
	}

	_ = ctx
	return nil
}

func joinFromChatMember(upd *tgbotapi.ChatMemberUpdated) (JoinUpdate, bool) {
	if upd.NewChatMember.User == nil {
		return JoinUpdate{}, false
	}
	if !isPresent(upd.NewChatMember) || isPresent(upd.OldChatMember) {
		return JoinUpdate{}, false
	}

	user := upd.NewChatMember.User
	join := JoinUpdate{
		ChatID:      upd.Chat.ID,
		ChatTitle:   chatTitle(upd.Chat),
		UserID:      user.ID,
		UserName:    displayName(user),
		IsBot:       user.IsBot,
		Permissions: permissionsOf(upd.NewChatMember),
		At:          time.Unix(int64(upd.Date), 0).UTC(),
	}
	if upd.From.ID != 0 && upd.From.ID != user.ID {
		join.Inviter = &model.Principal{ID: upd.From.ID, Name: displayName(&upd.From)}
	}
	return join, true
}

func messageUpdate(msg *tgbotapi.Message) MessageUpdate {
	update := MessageUpdate{
		MessageID: msg.MessageID,
		UserID:    msg.From.ID,
		UserName:  displayName(msg.From),
		Text:      strings.TrimSpace(msg.Text),
	}
	if msg.Chat != nil {
		update.ChatID = msg.Chat.ID
		update.ChatType = msg.Chat.Type
		update.ChatTitle = chatTitle(*msg.Chat)
	}
	return update
}

func membersAddedUpdate(msg *tgbotapi.Message) MembersAddedUpdate {
	update := MembersAddedUpdate{
		Inviter: model.Principal{ID: msg.From.ID, Name: displayName(msg.From)},
		UserIDs: make([]int64, 0, len(msg.NewChatMembers)),
	}
	if msg.Chat != nil {
		update.ChatID = msg.Chat.ID
	}
	for _, user := range msg.NewChatMembers {
		update.UserIDs = append(update.UserIDs, user.ID)
	}
	return update
}

func callbackUpdate(q *tgbotapi.CallbackQuery) CallbackUpdate {
	update := CallbackUpdate{
		CallbackID: q.ID,
		UserID:     q.From.ID,
		UserName:   displayName(q.From),
		Data:       q.Data,
	}
	if q.Message != nil {
		update.MessageID = q.Message.MessageID
		if q.Message.Chat != nil {
			update.ChatID = q.Message.Chat.ID
		}
	}
	return update
}
