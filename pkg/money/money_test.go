package money

import (
	"errors"
	"testing"
)

func TestToMinor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "two decimal places", input: "12.34", want: 1234},
		{name: "one decimal place", input: "0.5", want: 50},
		{name: "whole amount", input: "100", want: 10000},
		{name: "trailing zeros", input: "7.10", want: 710},
		{name: "large amount", input: "91234567.89", want: 9123456789},
		{name: "too precise", input: "1.005", wantErr: true},
		{name: "zero", input: "0", wantErr: true},
		{name: "zero with decimals", input: "0.00", wantErr: true},
		{name: "negative", input: "-3.50", wantErr: true},
		{name: "not a number", input: "ten", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToMinor(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Errorf("ToMinor(%q) error = %v, want ErrInvalidAmount", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ToMinor(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ToMinor(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFromMinor(t *testing.T) {
	tests := []struct {
		minor int64
		want  string
	}{
		{1234, "12.34"},
		{50, "0.50"},
		{10000, "100.00"},
		{0, "0.00"},
		{-3000, "-30.00"},
	}

	for _, tt := range tests {
		if got := FromMinor(tt.minor); got != tt.want {
			t.Errorf("FromMinor(%d) = %q, want %q", tt.minor, got, tt.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, minor := range []int64{1, 99, 100, 1234, 9000, 1<<40 + 7} {
		got, err := ToMinor(FromMinor(minor))
		if err != nil {
			t.Fatalf("round trip of %d failed: %v", minor, err)
		}
		if got != minor {
			t.Errorf("round trip of %d = %d", minor, got)
		}
	}
}
