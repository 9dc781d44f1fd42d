package benchmark

import (
	"atscore/internal/types"
)

// Standing labels returned in BenchmarkComparison
const (
	StandingTop          = "top performer"
	StandingAboveAverage = "above average"
	StandingBelowAverage = "below average"
)

// generalBaseline is used when no profile was retrieved
var generalBaseline = types.BenchmarkProfile{
	RoleCategory: "general professional",
	Industry:     "general",
	AverageScore: 65,
	TopScore:     80,
}

// Compare places an overall score against the profile's industry average and
// top-performer scores
func Compare(profile types.BenchmarkProfile, overall float64) types.BenchmarkComparison {
	if !profile.Found || profile.TopScore <= 0 || profile.AverageScore <= 0 {
		profile = generalBaseline
	}
	avg, top := profile.AverageScore, profile.TopScore

	var percentile float64
	standing := StandingBelowAverage
	switch {
	case overall >= top:
		percentile = 90
		standing = StandingTop
	case overall >= avg:
		percentile = 50 + 40*(overall-avg)/(top-avg)
		standing = StandingAboveAverage
	default:
		percentile = 50 * overall / avg
	}

	return types.BenchmarkComparison{
		Industry:     profile.Industry,
		RoleCategory: profile.RoleCategory,
		Score:        overall,
		AverageScore: avg,
		TopScore:     top,
		Percentile:   min(max(percentile, 0), 100),
		Standing:     standing,
	}
}
