// README: Money formatting and arithmetic tests.
package types

import "testing"

func TestMoneyString(t *testing.T) {
	cases := []struct {
		amount int64
		want   string
	}{
		{0, "0.00 PLN"},
		{5, "0.05 PLN"},
		{50, "0.50 PLN"},
		{200, "2.00 PLN"},
		{1234, "12.34 PLN"},
	}
	for _, tc := range cases {
		if got := PLN(tc.amount).String(); got != tc.want {
			t.Errorf("PLN(%d).String() = %q, want %q", tc.amount, got, tc.want)
		}
	}
}

func TestMoneyAdd(t *testing.T) {
	sum := PLN(200).Add(PLN(150))
	if sum.Amount != 350 {
		t.Fatalf("sum = %d, want 350", sum.Amount)
	}
	if sum.Currency != "PLN" {
		t.Fatalf("currency = %q, want PLN", sum.Currency)
	}
}
