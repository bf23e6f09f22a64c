package notifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ScalpSentinel/internal/model"
)

func TestFormatDescription(t *testing.T) {
	evt := model.SignalEvent{
		Signal:     "🟢 Long",
		Entry:      30000.5,
		StopLoss:   29850,
		TakeProfit: 30225.75,
		OFI:        -0.33333,
		Confidence: model.ConfidenceStrongLong,
	}
	want := "**Entry**: `30000.5`\n" +
		"🛡️ **SL**: `29850` | 🎯 **TP**: `30225.75`\n" +
		"📊 **OFI**: `-0.33333` | ⚡ **Confidence**: `🟢 Strong Long`"
	assert.Equal(t, want, FormatDescription(evt))
	assert.Equal(t, "📢 🟢 Long", FormatTitle(evt.Signal))
}

func TestBuildPayload_OmitsEmptyURL(t *testing.T) {
	p := buildPayload("bot", 1, model.SignalEvent{Signal: "Long"})
	assert.Equal(t, "", p.Embeds[0].URL)
	assert.Equal(t, "bot", p.Username)
}
