package analytics

import (
	"sort"

	"flowpulse/internal/flow"
)

// Key-level scoring weights and significance cutoffs.
const (
	levelVolumeWeight   = 0.4
	levelOIWeight       = 0.4
	levelPremiumWeight  = 0.2
	levelHighCutoff     = 0.7
	levelMediumCutoff   = 0.4
	levelSideDominance  = 2.0
	defaultTopLevels    = 5
)

// IdentifyKeyPriceLevels ranks a ticker's strikes by a combined volume,
// open-interest, and premium score and returns the top N. Each component is
// normalized against the maximum observed across strikes. topN values of
// zero or less fall back to the default of 5.
func IdentifyKeyPriceLevels(tickerRecords []flow.TradeRecord, topN int) []KeyPriceLevel {
	if topN <= 0 {
		topN = defaultTopLevels
	}

	type strikeAgg struct {
		volume     int64
		callVolume int64
		putVolume  int64
		oi         int64
		premium    float64
	}
	byStrike := make(map[float64]*strikeAgg)
	for _, r := range tickerRecords {
		agg, exists := byStrike[r.Strike]
		if !exists {
			agg = &strikeAgg{}
			byStrike[r.Strike] = agg
		}
		agg.volume += r.Volume
		if r.OptionType == flow.Call {
			agg.callVolume += r.Volume
		} else {
			agg.putVolume += r.Volume
		}
		agg.oi += r.OpenInterest
		agg.premium += flow.ParsePremium(r.Premium)
	}
	if len(byStrike) == 0 {
		return nil
	}

	var maxVolume, maxOI int64
	var maxPremium float64
	for _, agg := range byStrike {
		if agg.volume > maxVolume {
			maxVolume = agg.volume
		}
		if agg.oi > maxOI {
			maxOI = agg.oi
		}
		if agg.premium > maxPremium {
			maxPremium = agg.premium
		}
	}

	levels := make([]KeyPriceLevel, 0, len(byStrike))
	for strike, agg := range byStrike {
		score := levelVolumeWeight*normalize(float64(agg.volume), float64(maxVolume)) +
			levelOIWeight*normalize(float64(agg.oi), float64(maxOI)) +
			levelPremiumWeight*normalize(agg.premium, maxPremium)

		significance := "low"
		switch {
		case score > levelHighCutoff:
			significance = "high"
		case score > levelMediumCutoff:
			significance = "medium"
		}

		levelType := "both"
		switch {
		case float64(agg.callVolume) > levelSideDominance*float64(agg.putVolume):
			levelType = "call"
		case float64(agg.putVolume) > levelSideDominance*float64(agg.callVolume):
			levelType = "put"
		}

		levels = append(levels, KeyPriceLevel{
			Strike:       strike,
			TotalVolume:  agg.volume,
			OpenInterest: agg.oi,
			TotalPremium: agg.premium,
			Score:        score,
			Significance: significance,
			Type:         levelType,
		})
	}

	sort.SliceStable(levels, func(i, j int) bool {
		if levels[i].Score != levels[j].Score {
			return levels[i].Score > levels[j].Score
		}
		return levels[i].Strike < levels[j].Strike
	})

	if len(levels) > topN {
		levels = levels[:topN]
	}
	return levels
}

func normalize(v, max float64) float64 {
	if max == 0 {
		return 0
	}
	return v / max
}
