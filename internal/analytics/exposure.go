package analytics

import (
	"math"
	"sort"

	"flowpulse/internal/flow"
)

// At-the-money proximity weights for the gamma estimate.
const (
	gammaNearWeight    = 2.0 // within 5% of the current price
	gammaCloseWeight   = 1.5 // within 10%
	gammaFarWeight     = 0.5 // beyond 20%
	gammaDefaultWeight = 1.0

	gammaExtremeRatio  = 0.8
	gammaHighRatio     = 0.5
	gammaModerateRatio = 0.25
)

// EstimateGammaExposure computes a per-strike net exposure estimate of
// (put open interest - call open interest) scaled by how close the strike
// sits to currentPrice. This is a deliberate heuristic, not a Greeks
// calculation: there is no per-contract gamma, only aggregated
// open-interest imbalance. A non-positive currentPrice disables the
// proximity weighting. Entries are sorted ascending by strike and leveled
// against the maximum absolute exposure observed.
func EstimateGammaExposure(tickerRecords []flow.TradeRecord, currentPrice float64) []GammaExposureEntry {
	type strikeOI struct {
		callOI int64
		putOI  int64
	}
	byStrike := make(map[float64]*strikeOI)
	for _, r := range tickerRecords {
		agg, exists := byStrike[r.Strike]
		if !exists {
			agg = &strikeOI{}
			byStrike[r.Strike] = agg
		}
		if r.OptionType == flow.Call {
			agg.callOI += r.OpenInterest
		} else {
			agg.putOI += r.OpenInterest
		}
	}
	if len(byStrike) == 0 {
		return nil
	}

	entries := make([]GammaExposureEntry, 0, len(byStrike))
	maxAbs := 0.0
	for strike, agg := range byStrike {
		weight := atmWeight(strike, currentPrice)
		exposure := float64(agg.putOI-agg.callOI) * weight
		if abs := math.Abs(exposure); abs > maxAbs {
			maxAbs = abs
		}
		entries = append(entries, GammaExposureEntry{
			Strike:      strike,
			NetExposure: exposure,
			Weight:      weight,
		})
	}

	for i := range entries {
		entries[i].Level = exposureLevel(entries[i].NetExposure, maxAbs)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Strike < entries[j].Strike
	})
	return entries
}

func atmWeight(strike, currentPrice float64) float64 {
	if currentPrice <= 0 {
		return gammaDefaultWeight
	}
	distance := math.Abs(strike-currentPrice) / currentPrice
	switch {
	case distance <= 0.05:
		return gammaNearWeight
	case distance <= 0.10:
		return gammaCloseWeight
	case distance > 0.20:
		return gammaFarWeight
	default:
		return gammaDefaultWeight
	}
}

func exposureLevel(exposure, maxAbs float64) string {
	if maxAbs == 0 {
		return "low"
	}
	ratio := math.Abs(exposure) / maxAbs
	switch {
	case ratio >= gammaExtremeRatio:
		return "extreme"
	case ratio >= gammaHighRatio:
		return "high"
	case ratio >= gammaModerateRatio:
		return "moderate"
	default:
		return "low"
	}
}

// CalculateMaxPain finds the candidate settle price, among all distinct
// strikes observed, that maximizes the open-interest-weighted loss to
// option holders: calls lose OI x (strike - settle) when the settle is
// below their strike, puts lose OI x (settle - strike) when it is above.
// Ties resolve to the lower strike. ok is false when no records exist.
func CalculateMaxPain(tickerRecords []flow.TradeRecord) (MaxPainResult, bool) {
	strikeSet := make(map[float64]struct{})
	for _, r := range tickerRecords {
		strikeSet[r.Strike] = struct{}{}
	}
	if len(strikeSet) == 0 {
		return MaxPainResult{}, false
	}

	candidates := make([]float64, 0, len(strikeSet))
	for s := range strikeSet {
		candidates = append(candidates, s)
	}
	sort.Float64s(candidates)

	best := MaxPainResult{Strike: candidates[0], TotalLoss: -1}
	for _, settle := range candidates {
		loss := 0.0
		for _, r := range tickerRecords {
			oi := float64(r.OpenInterest)
			switch r.OptionType {
			case flow.Call:
				if settle < r.Strike {
					loss += oi * (r.Strike - settle)
				}
			case flow.Put:
				if settle > r.Strike {
					loss += oi * (settle - r.Strike)
				}
			}
		}
		if loss > best.TotalLoss {
			best = MaxPainResult{Strike: settle, TotalLoss: loss}
		}
	}
	return best, true
}
