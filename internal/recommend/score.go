package recommend

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tphakala/ebird-recommend/internal/errors"
)

// ErrInvalidRadius is returned when the distance normalization radius is not positive.
var ErrInvalidRadius = errors.NewStd("search radius must be positive")

// Scoring weights
const (
	maxCountedReports = 8
	reportWeight      = 1.5
	distancePenalty   = 10.0
)

// recency tiers, first match wins
var recencyTiers = []struct {
	maxDays int
	bonus   float64
}{
	{1, 15},
	{3, 10},
	{7, 5},
	{14, 2},
}

// RecencyBonus returns the bonus for a last report daysAgo days back.
func RecencyBonus(daysAgo int) float64 {
	for _, tier := range recencyTiers {
		if daysAgo <= tier.maxDays {
			return tier.bonus
		}
	}
	return 0
}

// FrequencyBonus rewards repeated reports, capped at eight.
func FrequencyBonus(reportCount int) float64 {
	return float64(min(reportCount, maxCountedReports)) * reportWeight
}

// Score combines recency, frequency and distance into one value rounded to
// two decimals. The distance penalty grows linearly to 10 at maxDistKm.
// Scores are not clamped and may be negative.
func Score(daysAgo, reportCount int, distanceKm, maxDistKm float64) (float64, error) {
	if err := ValidateRadius(maxDistKm); err != nil {
		return 0, err
	}

	raw := RecencyBonus(daysAgo) + FrequencyBonus(reportCount) - (distanceKm/maxDistKm)*distancePenalty
	return round(raw, 2), nil
}

// ValidateRadius rejects non-positive, infinite and NaN radii with ErrInvalidRadius.
func ValidateRadius(maxDistKm float64) error {
	if maxDistKm > 0 && !math.IsInf(maxDistKm, 1) {
		return nil
	}
	return errors.New(fmt.Errorf("%w, got %g", ErrInvalidRadius, maxDistKm)).
		Component("recommend").
		Category(errors.CategoryValidation).
		Context("max_dist_km", maxDistKm).
		Build()
}

// Reason explains a recommendation, e.g. "lifer | notable | seen 3d ago | 4 reports".
func Reason(isLifer, isNotable bool, daysAgo, reportCount int) string {
	parts := make([]string, 0, 4)
	if isLifer {
		parts = append(parts, "lifer")
	}
	if isNotable {
		parts = append(parts, "notable")
	}
	if daysAgo <= 1 {
		parts = append(parts, "seen today")
	} else {
		parts = append(parts, fmt.Sprintf("seen %dd ago", daysAgo))
	}
	if reportCount > 1 {
		parts = append(parts, fmt.Sprintf("%d reports", reportCount))
	}
	return strings.Join(parts, " | ")
}

// round rounds the exact binary value of v half to even, so 16.125 becomes
// 16.12 and 2.675 (stored as 2.67499...) becomes 2.67.
func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return exactDecimal(v).RoundBank(places).InexactFloat64()
}

// exactDecimal converts v digit for digit. decimal.NewFromFloat uses the
// shortest representation instead, which turns 2.67499... into 2.675.
func exactDecimal(v float64) decimal.Decimal {
	frac, exp := math.Frexp(v)
	mant := big.NewInt(int64(frac * (1 << 53)))
	shift := exp - 53
	if shift >= 0 {
		return decimal.NewFromBigInt(mant.Lsh(mant, uint(shift)), 0)
	}
	// m / 2^k == m * 5^k / 10^k
	pow := new(big.Int).Exp(big.NewInt(5), big.NewInt(int64(-shift)), nil)
	return decimal.NewFromBigInt(mant.Mul(mant, pow), int32(shift))
}
