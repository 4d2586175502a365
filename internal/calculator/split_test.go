package calculator

import (
	"errors"
	"testing"
)

func TestSplitEqual(t *testing.T) {
	tests := []struct {
		name    string
		total   int64
		n       int
		want    []int64
		wantErr error
	}{
		{
			name:  "100 split among 3 gives remainder to first",
			total: 100,
			n:     3,
			want:  []int64{34, 33, 33},
		},
		{
			name:  "exact division",
			total: 90,
			n:     3,
			want:  []int64{30, 30, 30},
		},
		{
			name:  "single participant takes all",
			total: 4200,
			n:     1,
			want:  []int64{4200},
		},
		{
			name:  "amount smaller than participant count",
			total: 2,
			n:     3,
			want:  []int64{1, 1, 0},
		},
		{
			name:    "zero participants rejected",
			total:   100,
			n:       0,
			wantErr: ErrInvalidSplit,
		},
		{
			name:    "non-positive amount rejected",
			total:   0,
			n:       2,
			wantErr: ErrInvalidSplit,
		},
		{
			name:    "negative amount rejected",
			total:   -5,
			n:       2,
			wantErr: ErrInvalidSplit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitEqual(tt.total, tt.n)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("SplitEqual() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SplitEqual() unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("SplitEqual() returned %d shares, want %d", len(got), len(tt.want))
			}
			var sum int64
			for i, share := range got {
				if share != tt.want[i] {
					t.Errorf("share[%d] = %d, want %d", i, share, tt.want[i])
				}
				sum += share
			}
			if sum != tt.total {
				t.Errorf("shares sum to %d, want %d", sum, tt.total)
			}
		})
	}
}

// Shares must always reconstruct the total exactly, and each share is
// floor(total/n) or floor(total/n)+1.
func TestSplitEqualExactness(t *testing.T) {
	for total := int64(1); total <= 500; total += 7 {
		for n := 1; n <= 11; n++ {
			shares, err := SplitEqual(total, n)
			if err != nil {
				t.Fatalf("SplitEqual(%d, %d) error: %v", total, n, err)
			}
			base := total / int64(n)
			var sum int64
			for _, s := range shares {
				if s != base && s != base+1 {
					t.Fatalf("SplitEqual(%d, %d): share %d outside {%d, %d}", total, n, s, base, base+1)
				}
				sum += s
			}
			if sum != total {
				t.Fatalf("SplitEqual(%d, %d): shares sum to %d", total, n, sum)
			}
		}
	}
}

func TestValidateShares(t *testing.T) {
	tests := []struct {
		name    string
		total   int64
		shares  []int64
		wantErr error
	}{
		{name: "exact custom split", total: 100, shares: []int64{50, 30, 20}},
		{name: "sum too low", total: 100, shares: []int64{50, 30, 19}, wantErr: ErrSplitMismatch},
		{name: "sum too high", total: 100, shares: []int64{50, 30, 21}, wantErr: ErrSplitMismatch},
		{name: "zero share rejected", total: 100, shares: []int64{100, 0}, wantErr: ErrInvalidSplit},
		{name: "negative share rejected", total: 100, shares: []int64{150, -50}, wantErr: ErrInvalidSplit},
		{name: "no shares rejected", total: 100, shares: nil, wantErr: ErrInvalidSplit},
		{name: "non-positive total rejected", total: 0, shares: []int64{1}, wantErr: ErrInvalidSplit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateShares(tt.total, tt.shares)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidateShares() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateShares() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
