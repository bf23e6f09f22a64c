package notifier

import (
	"fmt"
	"strconv"
	"strings"

	"ScalpSentinel/internal/model"
)

// embed is a single rich message block in the webhook payload.
type embed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
	URL         string `json:"url,omitempty"`
}

// payload is the webhook message body.
type payload struct {
	Username string  `json:"username"`
	Content  string  `json:"content"`
	Embeds   []embed `json:"embeds"`
}

// FormatTitle returns the alert title for a signal label.
func FormatTitle(signal string) string {
	return "📢 " + signal
}

// FormatDescription renders the alert body. Values are printed as given;
// callers round before building the event.
func FormatDescription(evt model.SignalEvent) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("**Entry**: `%s`\n", formatFloat(evt.Entry)))
	b.WriteString(fmt.Sprintf("🛡️ **SL**: `%s` | 🎯 **TP**: `%s`\n", formatFloat(evt.StopLoss), formatFloat(evt.TakeProfit)))
	b.WriteString(fmt.Sprintf("📊 **OFI**: `%s` | ⚡ **Confidence**: `%s`", formatFloat(evt.OFI), evt.Confidence))
	return b.String()
}

func buildPayload(username string, color int, evt model.SignalEvent) payload {
	return payload{
		Username: username,
		Content:  "",
		Embeds: []embed{{
			Title:       FormatTitle(evt.Signal),
			Description: FormatDescription(evt),
			Color:       color,
			URL:         evt.DashboardLink,
		}},
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
