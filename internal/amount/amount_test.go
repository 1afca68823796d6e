package amount

import (
	"errors"
	"testing"

	xerrors "AOChat-Wallet/internal/errors"
)

func TestToBaseUnits(t *testing.T) {
	got, err := ToBaseUnits("0.1", 12)
	if err != nil {
		t.Fatalf("to base units: %v", err)
	}
	if got != "100000000000" {
		t.Fatalf("expected 100000000000, got %s", got)
	}

	got, err = ToBaseUnits("1.000001", 6)
	if err != nil {
		t.Fatalf("to base units: %v", err)
	}
	if got != "1000001" {
		t.Fatalf("expected 1000001, got %s", got)
	}
}

func TestToBaseUnitsBankersRounding(t *testing.T) {
	// 0.5 基数单位的平手场景：银行家舍入取最近的偶数。
	got, err := ToBaseUnits("0.25", 1)
	if err != nil {
		t.Fatalf("to base units: %v", err)
	}
	if got != "2" {
		t.Fatalf("expected tie 2.5 to round to 2, got %s", got)
	}

	got, err = ToBaseUnits("0.35", 1)
	if err != nil {
		t.Fatalf("to base units: %v", err)
	}
	if got != "4" {
		t.Fatalf("expected tie 3.5 to round to 4, got %s", got)
	}
}

func TestToBaseUnitsRejectsBadInput(t *testing.T) {
	cases := []string{"", "abc", "-1", "0", "1..2"}
	for _, in := range cases {
		if _, err := ToBaseUnits(in, 6); err == nil {
			t.Fatalf("expected error for input %q", in)
		} else if !errors.Is(err, xerrors.New(xerrors.CodeInvalidAmount, "")) {
			t.Fatalf("expected INVALID_AMOUNT for %q, got %v", in, err)
		}
	}
}

func TestDisplayRoundTrip(t *testing.T) {
	inputs := []struct {
		display  string
		decimals int
	}{
		{"0.1", 12},
		{"1", 0},
		{"42.5", 6},
		{"0.000001", 6},
		{"123456.789", 3},
	}
	for _, in := range inputs {
		base, err := ToBaseUnits(in.display, in.decimals)
		if err != nil {
			t.Fatalf("%q: to base: %v", in.display, err)
		}
		back, err := ToDisplayUnits(base, in.decimals)
		if err != nil {
			t.Fatalf("%q: to display: %v", in.display, err)
		}
		if back != in.display {
			t.Fatalf("round trip %q/%d: got %q", in.display, in.decimals, back)
		}
	}
}

func TestToDisplayUnitsTrimsAndCaps(t *testing.T) {
	got, err := ToDisplayUnits("1500000000000", 12)
	if err != nil {
		t.Fatalf("to display: %v", err)
	}
	if got != "1.5" {
		t.Fatalf("expected 1.5, got %s", got)
	}

	// 12 位小数的精度展示时截断到 6 位。
	got, err = ToDisplayUnits("1000000000001", 12)
	if err != nil {
		t.Fatalf("to display: %v", err)
	}
	if got != "1" {
		t.Fatalf("expected sub-display digits to be truncated, got %s", got)
	}
}

func TestIsAllKeyword(t *testing.T) {
	for _, in := range []string{"all", "ALL", "max", " Max "} {
		if !IsAllKeyword(in) {
			t.Fatalf("expected %q to be the all sentinel", in)
		}
	}
	for _, in := range []string{"", "whole", "maximal", "0"} {
		if IsAllKeyword(in) {
			t.Fatalf("did not expect %q to be the all sentinel", in)
		}
	}
}

func TestIsZeroBase(t *testing.T) {
	for _, in := range []string{"0", "0.0", "00", "0.000000"} {
		if !IsZeroBase(in) {
			t.Fatalf("expected %q to compare equal to zero", in)
		}
	}
	if IsZeroBase("1") || IsZeroBase("not-a-number") {
		t.Fatalf("unexpected zero classification")
	}
}

func TestValidateBase(t *testing.T) {
	if err := ValidateBase("123456789"); err != nil {
		t.Fatalf("expected integer string to validate: %v", err)
	}
	for _, in := range []string{"1.5", "-3", "", "1e3x"} {
		if err := ValidateBase(in); err == nil {
			t.Fatalf("expected %q to fail validation", in)
		}
	}
}
