package psychology

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// describe assembles the templated sentence for one bucket: a sentiment
// phrase, then an optional sweep clause and an optional activity clause.
func describe(m BucketMetrics, p TradePsychology) string {
	var b strings.Builder

	switch p.Sentiment {
	case SentimentBullish:
		b.WriteString("Call buying dominated the flow")
	case SentimentBearish:
		b.WriteString("Put buying outweighed calls")
	case SentimentNeutral:
		b.WriteString("Flow was balanced between calls and puts")
	default:
		b.WriteString("Flow was two-sided without a clear lean")
	}

	if p.SweepIntensity != LevelLow && m.SweepCount > 0 {
		fmt.Fprintf(&b, ", with %s signaling urgency", sweepPhrase(m.SweepCount))
	}

	switch p.Activity {
	case LevelHigh:
		fmt.Fprintf(&b, " on heavy activity of %s contracts", humanize.Comma(m.TotalVolume))
	case LevelMedium:
		fmt.Fprintf(&b, " on moderate activity of %s contracts", humanize.Comma(m.TotalVolume))
	}

	b.WriteString(".")
	return b.String()
}

func sweepPhrase(count int) string {
	if count == 1 {
		return "1 sweep order"
	}
	return fmt.Sprintf("%d sweep orders", count)
}
