package core

import "testing"

func TestMonthlyInterestCents(t *testing.T) {
	tests := []struct {
		name         string
		balanceCents int64
		rateBps      int64
		want         int64
	}{
		{
			name:         "12% APR on 1200.00 is exactly 12.00",
			balanceCents: 120000,
			rateBps:      1200,
			want:         1200,
		},
		{
			name:         "zero rate accrues nothing",
			balanceCents: 120000,
			rateBps:      0,
			want:         0,
		},
		{
			name:         "zero balance accrues nothing",
			balanceCents: 0,
			rateBps:      1200,
			want:         0,
		},
		{
			name:         "half cent rounds up",
			balanceCents: 100, // 1.00 at 6% APR -> 0.5 cents monthly
			rateBps:      600,
			want:         1,
		},
		{
			name:         "below half cent rounds down",
			balanceCents: 100, // 1.00 at 5% APR -> 0.4166 cents monthly
			rateBps:      500,
			want:         0,
		},
		{
			name:         "19.99% APR on 4532.17",
			balanceCents: 453217,
			rateBps:      1999, // 453217 * 1999 / 120000 = 7549.84... -> 7550
			want:         7550,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthlyInterestCents(tt.balanceCents, tt.rateBps)
			if got != tt.want {
				t.Errorf("MonthlyInterestCents(%d, %d) = %d, want %d",
					tt.balanceCents, tt.rateBps, got, tt.want)
			}
		})
	}
}

func TestPercentOf(t *testing.T) {
	tests := []struct {
		name  string
		part  int64
		whole int64
		want  float64
	}{
		{name: "plain ratio", part: 30000, whole: 50000, want: 60},
		{name: "over the limit", part: 60000, whole: 50000, want: 120},
		{name: "zero whole yields zero not NaN", part: 0, whole: 0, want: 0},
		{name: "zero whole with spend", part: 100, whole: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PercentOf(tt.part, tt.whole); got != tt.want {
				t.Errorf("PercentOf(%d, %d) = %v, want %v", tt.part, tt.whole, got, tt.want)
			}
		})
	}
}

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int64
		wantErr bool
	}{
		{name: "dot separator", in: "12.34", want: 1234},
		{name: "comma separator", in: "12,34", want: 1234},
		{name: "no fraction", in: "15", want: 1500},
		{name: "single fraction digit", in: "9.5", want: 950},
		{name: "third decimal rounds down", in: "12.344", want: 1234},
		{name: "third decimal rounds up", in: "12.345", want: 1235},
		{name: "zero is allowed", in: "0", want: 0},
		{name: "negative rejected", in: "-1.00", wantErr: true},
		{name: "plus sign rejected", in: "+1.00", wantErr: true},
		{name: "empty rejected", in: "  ", wantErr: true},
		{name: "garbage rejected", in: "12.3a", wantErr: true},
		{name: "double separator rejected", in: "1.2.3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDecimalToCents(%q) expected error, got %d", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimalToCents(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatCents(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{cents: 1234, want: "12.34"},
		{cents: 5, want: "0.05"},
		{cents: 0, want: "0.00"},
		{cents: -1234, want: "-12.34"},
		{cents: 121200, want: "1212.00"},
	}

	for _, tt := range tests {
		if got := FormatCents(tt.cents); got != tt.want {
			t.Errorf("FormatCents(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}
