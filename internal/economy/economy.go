package economy

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// All currency amounts are integer minor units (cents of a gem). Parsing from
// decimal strings happens here, once, at the edge.

const (
	// MaxDiscount caps stacked discounts from simultaneous events.
	MaxDiscount = 0.5

	// MasteryBonusCap saturates the mastery earn bonus at +10%.
	MasteryBonusCap     = 0.10
	masteryBonusPerStep = 0.012

	MaxMasteryLevel = 9
	MaxStreakDay    = 15
)

// masteryThresholds[i] is the minimum XP for level i.
var masteryThresholds = [10]int64{0, 5, 15, 30, 50, 80, 120, 170, 230, 300}

// streakSchedule holds the daily streak reward in whole gems, day 1 through 15.
var streakSchedule = [15]int64{
	10, 12, 14, 17, 20,
	24, 29, 35, 42, 50,
	60, 70, 80, 90, 100,
}

// ToMinorUnits parses a decimal gem amount ("15.00", "1,50") into minor units,
// rounding to the nearest cent and flooring at zero. Unparsable input yields 0.
func ToMinorUnits(value string) int64 {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(value), ",", "."))
	if err != nil {
		return 0
	}
	cents := d.Shift(2).Round(0).IntPart()
	if cents < 0 {
		return 0
	}
	return cents
}

// FormatGems renders minor units as a two-decimal gem string for API payloads.
func FormatGems(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// Clamp bounds n to [min, max].
func Clamp(n, min, max float64) float64 {
	return math.Max(min, math.Min(max, n))
}

// CombineDiscounts stacks two discount fractions additively, capped at 50%.
func CombineDiscounts(a, b float64) float64 {
	return Clamp(a+b, 0, MaxDiscount)
}

// ApplyDiscount discounts the case and key price components independently.
// Each component is rounded on its own so results are reproducible from the
// stored inputs; the discount is clamped to [0, 0.5] before use.
func ApplyDiscount(casePrice, keyPrice int64, discount float64) (int64, int64) {
	d := Clamp(discount, 0, MaxDiscount)
	if d <= 0 {
		return casePrice, keyPrice
	}
	return int64(math.Round(float64(casePrice) * (1 - d))),
		int64(math.Round(float64(keyPrice) * (1 - d)))
}

// MasteryLevel maps accumulated XP to a level 0..9: the highest index whose
// threshold does not exceed xp.
func MasteryLevel(xp int64) int {
	level := 0
	for i, threshold := range masteryThresholds {
		if xp >= threshold {
			level = i
		}
	}
	return level
}

// MasteryBonusMultiplier returns the earn multiplier for a mastery level,
// saturating at the +10% cap (reached at level 9).
func MasteryBonusMultiplier(level int) float64 {
	return 1 + math.Min(MasteryBonusCap, float64(level)*masteryBonusPerStep)
}

// StreakReward returns the reward in minor units for a streak day, clamping
// the day into the 1..15 schedule.
func StreakReward(day int) int64 {
	if day < 1 {
		day = 1
	}
	if day > MaxStreakDay {
		day = MaxStreakDay
	}
	return streakSchedule[day-1] * 100
}
