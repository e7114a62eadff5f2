package economy

import "testing"

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"15.00", 1500},
		{"15", 1500},
		{"0.01", 1},
		{"1,50", 150},
		{"  2.5 ", 250},
		{"0.005", 1},
		{"-3.00", 0},
		{"garbage", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := ToMinorUnits(tt.in); got != tt.want {
			t.Errorf("ToMinorUnits(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCombineDiscountsNeverExceedsCap(t *testing.T) {
	if got := CombineDiscounts(0.1, 0.1); got != 0.2 {
		t.Errorf("expected 0.2, got %v", got)
	}
	if got := CombineDiscounts(0.4, 0.3); got != 0.5 {
		t.Errorf("expected cap at 0.5, got %v", got)
	}
	if got := CombineDiscounts(-0.2, 0.1); got != 0.1 {
		t.Errorf("expected 0.1, got %v", got)
	}
}

func TestApplyDiscountRoundsPerComponent(t *testing.T) {
	casePrice, keyPrice := ApplyDiscount(999, 251, 0.10)
	if casePrice != 899 {
		t.Errorf("expected case price 899, got %d", casePrice)
	}
	if keyPrice != 226 {
		t.Errorf("expected key price 226, got %d", keyPrice)
	}

	// Discount above the cap is clamped, not rejected.
	casePrice, _ = ApplyDiscount(1000, 0, 0.9)
	if casePrice != 500 {
		t.Errorf("expected clamp to 50%% discount, got %d", casePrice)
	}

	casePrice, keyPrice = ApplyDiscount(1000, 250, 0)
	if casePrice != 1000 || keyPrice != 250 {
		t.Errorf("zero discount should be identity, got %d/%d", casePrice, keyPrice)
	}
}

func TestMasteryLevel(t *testing.T) {
	tests := []struct {
		xp   int64
		want int
	}{
		{0, 0},
		{4, 0},
		{5, 1},
		{29, 2},
		{30, 3},
		{299, 8},
		{300, 9},
		{100000, 9},
	}
	for _, tt := range tests {
		if got := MasteryLevel(tt.xp); got != tt.want {
			t.Errorf("MasteryLevel(%d) = %d, want %d", tt.xp, got, tt.want)
		}
	}

	// Level must never decrease as XP grows.
	prev := 0
	for xp := int64(0); xp <= 400; xp++ {
		lvl := MasteryLevel(xp)
		if lvl < prev {
			t.Fatalf("mastery level decreased at xp=%d: %d -> %d", xp, prev, lvl)
		}
		prev = lvl
	}
}

func TestMasteryBonusMultiplier(t *testing.T) {
	if got := MasteryBonusMultiplier(0); got != 1.0 {
		t.Errorf("level 0 should have no bonus, got %v", got)
	}
	// Level 9 would be 1.108 uncapped; the +10% cap applies.
	if got := MasteryBonusMultiplier(9); got != 1.10 {
		t.Errorf("level 9 multiplier should be 1.10, got %v", got)
	}
	// Hypothetical levels past 9 saturate at the cap.
	if got := MasteryBonusMultiplier(20); got != 1.10 {
		t.Errorf("bonus should cap at +10%%, got %v", got)
	}
}

func TestStreakReward(t *testing.T) {
	if got := StreakReward(1); got != 1000 {
		t.Errorf("day 1 reward should be 10.00 gems, got %d", got)
	}
	if got := StreakReward(15); got != 10000 {
		t.Errorf("day 15 reward should be 100.00 gems, got %d", got)
	}
	// Out-of-range days clamp into the schedule.
	if got := StreakReward(0); got != 1000 {
		t.Errorf("day 0 should clamp to day 1, got %d", got)
	}
	if got := StreakReward(40); got != 10000 {
		t.Errorf("day 40 should clamp to day 15, got %d", got)
	}
	// Schedule is strictly ascending.
	for day := 2; day <= 15; day++ {
		if StreakReward(day) <= StreakReward(day-1) {
			t.Errorf("streak schedule not ascending at day %d", day)
		}
	}
}

func TestFormatGems(t *testing.T) {
	if got := FormatGems(1500); got != "15.00" {
		t.Errorf("expected 15.00, got %s", got)
	}
	if got := FormatGems(5); got != "0.05" {
		t.Errorf("expected 0.05, got %s", got)
	}
}
