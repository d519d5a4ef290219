// README: Common money value object used across modules.
package types

import "fmt"

// Money is an amount in minor units (grosze). 10.00 zł == Amount 1000.
type Money struct {
	Amount   int64
	Currency string
}

func PLN(amount int64) Money {
	return Money{Amount: amount, Currency: "PLN"}
}

func (m Money) Add(n Money) Money {
	return Money{Amount: m.Amount + n.Amount, Currency: m.Currency}
}

func (m Money) String() string {
	return fmt.Sprintf("%d.%02d %s", m.Amount/100, m.Amount%100, m.Currency)
}
