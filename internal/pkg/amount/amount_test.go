package amount

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestToWeiTruncatesBeyond18Places(t *testing.T) {
	d, err := Parse("1.1234567890123456789") // 19 decimal places
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	wei := ToWei(d)
	want, _ := new(big.Int).SetString("1123456789012345678", 10)
	if wei.Cmp(want) != 0 {
		t.Errorf("Expected %s, got %s", want, wei)
	}

	// Round-trip yields the truncated value, not a rounded one.
	back := FromWei(wei)
	if back.String() != "1.123456789012345678" {
		t.Errorf("Expected 1.123456789012345678, got %s", back)
	}
}

func TestToWeiRoundTrip(t *testing.T) {
	cases := []string{"1", "0.000001", "1000000", "42.5", "0.123456789012345678"}
	for _, c := range cases {
		d := decimal.RequireFromString(c)
		if got := FromWei(ToWei(d)); !got.Equal(d) {
			t.Errorf("Round-trip of %s: got %s", c, got)
		}
	}
}

func TestValidateBounds(t *testing.T) {
	cases := []struct {
		in      string
		wantErr bool
	}{
		{"0", true},
		{"-1", true},
		{"0.0000009", true}, // below minimum
		{"0.000001", false},
		{"1", false},
		{"1000000", false},
		{"1000000.000001", true}, // above maximum
	}

	for _, c := range cases {
		err := Validate(decimal.RequireFromString(c.in))
		if c.wantErr && err == nil {
			t.Errorf("Validate(%s): expected error, got nil", c.in)
		}
		if !c.wantErr && err != nil {
			t.Errorf("Validate(%s): unexpected error %v", c.in, err)
		}
	}
}

func TestFormatTrimsTrailingZeros(t *testing.T) {
	v, _ := new(big.Int).SetString("1234500000000000000", 10)
	if got := Format(v); got != "1.2345" {
		t.Errorf("Expected 1.2345, got %s", got)
	}

	if got := Format(big.NewInt(0)); got != "0" {
		t.Errorf("Expected 0, got %s", got)
	}

	if got := Format(nil); got != "0" {
		t.Errorf("Expected 0 for nil, got %s", got)
	}
}

func TestFormatUnitsBasisPoints(t *testing.T) {
	// 250 basis points => 2.5 percent.
	if got := FormatUnits(big.NewInt(250), 2); got != "2.5" {
		t.Errorf("Expected 2.5, got %s", got)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "1.2.3"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q): expected error, got nil", in)
		}
	}
}
