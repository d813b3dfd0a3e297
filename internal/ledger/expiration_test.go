package ledger

import (
	"errors"
	"testing"
	"time"
)

func TestParseExpirationZeroDTE(t *testing.T) {
	for _, token := range []string{"0dte", "0DTE", " 0Dte "} {
		got, err := ParseExpiration(token)
		if err != nil {
			t.Fatalf("ParseExpiration(%q) failed: %v", token, err)
		}
		y, m, d := time.Now().UTC().Date()
		want := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("ParseExpiration(%q) = %v, want today %v", token, got, want)
		}
	}
}

func TestParseExpirationFullDate(t *testing.T) {
	got, err := ParseExpiration("05/17/2026")
	if err != nil {
		t.Fatalf("ParseExpiration failed: %v", err)
	}
	want := time.Date(2026, 5, 17, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	// Single-digit month and day parse too.
	got, err = ParseExpiration("5/7/2026")
	if err != nil {
		t.Fatalf("ParseExpiration failed: %v", err)
	}
	want = time.Date(2026, 5, 7, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestParseExpirationShortDateAssumesCurrentYear(t *testing.T) {
	got, err := ParseExpiration("12/19")
	if err != nil {
		t.Fatalf("ParseExpiration failed: %v", err)
	}
	want := time.Date(time.Now().UTC().Year(), 12, 19, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestParseExpirationRejectsGarbage(t *testing.T) {
	for _, token := range []string{"", "tomorrow", "13/40", "2026-05-17", "5/17/26"} {
		if _, err := ParseExpiration(token); !errors.Is(err, ErrInvalidDateFormat) {
			t.Errorf("ParseExpiration(%q): expected ErrInvalidDateFormat, got %v", token, err)
		}
	}
}

func TestParseContract(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"150C", "CALL $150"},
		{"150p", "PUT $150"},
		{"150.5C", "CALL $150.5"},
		{"CALL $150", "CALL $150"},
		{"call $150", "CALL $150"},
		{"PUT $42", "PUT $42"},
		{"C$150", "CALL $150"},
		{"p$95", "PUT $95"},
	}
	for _, c := range cases {
		got, err := ParseContract(c.in)
		if err != nil {
			t.Errorf("ParseContract(%q) failed: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseContract(%q) = %q, want %q", c.in, got, c.want)
		}
	}

	for _, bad := range []string{"", "150", "X$150", "banana"} {
		if _, err := ParseContract(bad); !errors.Is(err, ErrInvalidContract) {
			t.Errorf("ParseContract(%q): expected ErrInvalidContract, got %v", bad, err)
		}
	}
}

func TestSplitContractExpiration(t *testing.T) {
	contract, exp, err := SplitContractExpiration("CALL $150 05/17")
	if err != nil {
		t.Fatalf("SplitContractExpiration failed: %v", err)
	}
	if contract != "CALL $150" || exp != "05/17" {
		t.Errorf("Got (%q, %q), want (CALL $150, 05/17)", contract, exp)
	}

	contract, exp, err = SplitContractExpiration("150C 0dte")
	if err != nil {
		t.Fatalf("SplitContractExpiration failed: %v", err)
	}
	if contract != "150C" || exp != "0dte" {
		t.Errorf("Got (%q, %q), want (150C, 0dte)", contract, exp)
	}

	if _, _, err := SplitContractExpiration("150C"); err == nil {
		t.Error("Expected error for input without an expiration field")
	}
}
