package model

import (
	"fmt"
	"time"
)

// FormatCountdown renders the remaining approval time in whole seconds, rounding up.
func FormatCountdown(remaining time.Duration) string {
	seconds := int((remaining + time.Second - 1) / time.Second)
	switch {
	case seconds <= 0:
		return "⏰ Time's up!"
	case seconds == 1:
		return "⏰ 1 second remaining"
	default:
		return fmt.Sprintf("⏰ %d seconds remaining", seconds)
	}
}
