package money

import "testing"

func TestRoundDiv(t *testing.T) {
	tests := []struct {
		n, d, want int64
	}{
		{0, 7, 0},
		{10, 4, 3}, // 2.5 rounds up
		{9, 4, 2},  // 2.25
		{11, 4, 3}, // 2.75
		{-10, 4, -3},
		{100, 1, 100},
	}
	for _, tt := range tests {
		if got := RoundDiv(tt.n, tt.d); got != tt.want {
			t.Errorf("RoundDiv(%d, %d) = %d, want %d", tt.n, tt.d, got, tt.want)
		}
	}
}

func TestApplyBPS(t *testing.T) {
	tests := []struct {
		amount, bps, want int64
	}{
		{20000, 350, 700},
		{700, 1900, 133},
		{15000, 350, 525},
		{525, 1900, 100}, // 99.75
		{10000, 0, 0},
		{1, 5000, 1}, // 0.5 rounds up
	}
	for _, tt := range tests {
		if got := ApplyBPS(tt.amount, tt.bps); got != tt.want {
			t.Errorf("ApplyBPS(%d, %d) = %d, want %d", tt.amount, tt.bps, got, tt.want)
		}
	}
}

func TestProrate(t *testing.T) {
	if got := Prorate(20000, 60); got != 20000 {
		t.Fatalf("Prorate 60m = %d", got)
	}
	if got := Prorate(20000, 90); got != 30000 {
		t.Fatalf("Prorate 90m = %d", got)
	}
	if got := Prorate(25001, 30); got != 12501 {
		t.Fatalf("Prorate 30m = %d", got)
	}
}
