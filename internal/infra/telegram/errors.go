package telegram

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ivankudzin/botgate/internal/domain/platform"
)

var notFoundMarkers = []string{
	"user not found",
	"participant_id_invalid",
	"user_not_participant",
	"member not found",
	"chat not found",
	"message to edit not found",
}

var deniedMarkers = []string{
	"not enough rights",
	"chat_admin_required",
	"need administrator rights",
	"can't remove chat owner",
	"user is an administrator of the chat",
}

// classify wraps Bot API failures with the platform sentinel they correspond to.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		var valueErr tgbotapi.Error
		if !errors.As(err, &valueErr) {
			return err
		}
		apiErr = &valueErr
	}

	msg := strings.ToLower(apiErr.Message)
	switch {
	case apiErr.Code == http.StatusForbidden:
		return fmt.Errorf("%w: %s", platform.ErrPermissionDenied, apiErr.Message)
	case containsAny(msg, deniedMarkers):
		return fmt.Errorf("%w: %s", platform.ErrPermissionDenied, apiErr.Message)
	case containsAny(msg, notFoundMarkers):
		return fmt.Errorf("%w: %s", platform.ErrNotFound, apiErr.Message)
	default:
		return err
	}
}

func containsAny(s string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
