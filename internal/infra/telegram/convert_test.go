package telegram

import (
	"errors"
	"fmt"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ivankudzin/botgate/internal/domain/platform"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		user *tgbotapi.User
		want string
	}{
		{&tgbotapi.User{ID: 1, UserName: "alice", FirstName: "Alice"}, "@alice"},
		{&tgbotapi.User{ID: 2, FirstName: "Bob", LastName: "Stone"}, "Bob Stone"},
		{&tgbotapi.User{ID: 3}, "id3"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := displayName(tt.user); got != tt.want {
			t.Fatalf("displayName(%+v) = %q, want %q", tt.user, got, tt.want)
		}
	}
}

func TestMemberOfElevation(t *testing.T) {
	tests := []struct {
		name   string
		member tgbotapi.ChatMember
		want   bool
	}{
		{"creator", tgbotapi.ChatMember{User: &tgbotapi.User{ID: 1}, Status: "creator"}, true},
		{"promoting admin", tgbotapi.ChatMember{User: &tgbotapi.User{ID: 2}, Status: "administrator", CanPromoteMembers: true}, true},
		{"plain admin", tgbotapi.ChatMember{User: &tgbotapi.User{ID: 3}, Status: "administrator"}, false},
		{"member", tgbotapi.ChatMember{User: &tgbotapi.User{ID: 4}, Status: "member"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := memberOf(tt.member).Elevated; got != tt.want {
				t.Fatalf("Elevated = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJoinFromChatMemberSkipsNonJoins(t *testing.T) {
	bot := &tgbotapi.User{ID: 42, IsBot: true}
	tests := []struct {
		name string
		old  string
		new  string
		want bool
	}{
		{"left to member", "left", "member", true},
		{"kicked to administrator", "kicked", "administrator", true},
		{"member to administrator", "member", "administrator", false},
		{"member to left", "member", "left", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := joinFromChatMember(&tgbotapi.ChatMemberUpdated{
				Chat:          tgbotapi.Chat{ID: -100},
				From:          tgbotapi.User{ID: 42},
				OldChatMember: tgbotapi.ChatMember{User: bot, Status: tt.old},
				NewChatMember: tgbotapi.ChatMember{User: bot, Status: tt.new},
			})
			if ok != tt.want {
				t.Fatalf("join detected = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"forbidden code", &tgbotapi.Error{Code: 403, Message: "Forbidden: bot can't initiate conversation with a user"}, platform.ErrPermissionDenied},
		{"admin required", tgbotapi.Error{Code: 400, Message: "Bad Request: CHAT_ADMIN_REQUIRED"}, platform.ErrPermissionDenied},
		{"wrapped not found", fmt.Errorf("call: %w", &tgbotapi.Error{Code: 400, Message: "Bad Request: user not found"}), platform.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err); !errors.Is(got, tt.want) {
				t.Fatalf("classify() = %v, want %v", got, tt.want)
			}
		})
	}

	other := errors.New("connection reset")
	if got := classify(other); got != other {
		t.Fatalf("expected unrelated error to pass through, got %v", got)
	}
	if classify(nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}
