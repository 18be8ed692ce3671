package view

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/innovatetogether/go-innovate/core"
)

type DashboardStats struct {
	ActiveChallenges   float64
	SolutionsSubmitted float64
	RewardsEarned      float64
	AvgRating          float64
}

// StatsFor derives the dashboard figures from profile. Missing or
// non-numeric values count as zero.
func StatsFor(profile *core.Profile) DashboardStats {
	if profile == nil {
		return DashboardStats{}
	}
	return DashboardStats{
		ActiveChallenges:   coerceNumber(profile.ActiveChallenges),
		SolutionsSubmitted: coerceNumber(profile.SolutionsSubmitted),
		RewardsEarned:      coerceNumber(profile.RewardsEarned),
		AvgRating:          coerceNumber(profile.AvgRating),
	}
}

// coerceNumber follows the numeric conversion used by the web dashboard:
// blank strings and null become 0, booleans become 0 or 1, anything that is
// not a finite number falls back to 0.
func coerceNumber(value any) float64 {
	var n float64
	switch v := value.(type) {
	case nil:
		return 0
	case bool:
		if v {
			return 1
		}
		return 0
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0
		}
		n = parsed
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0
		}
		n = parsed
	default:
		return 0
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}
