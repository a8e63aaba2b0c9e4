// README: Common money value object used across modules.
package types

// Money is an amount in minor units (cents). Keeping amounts integral makes
// the round-to-cent rule of the pricing formulas exact.
type Money struct {
	Amount   int64
	Currency string
}

const DefaultCurrency = "EUR"

// Cents builds a Money in the default currency.
func Cents(amount int64) Money {
	return Money{Amount: amount, Currency: DefaultCurrency}
}

func (m Money) Add(o Money) Money {
	cur := m.Currency
	if cur == "" {
		cur = o.Currency
	}
	return Money{Amount: m.Amount + o.Amount, Currency: cur}
}

func (m Money) Sub(o Money) Money {
	cur := m.Currency
	if cur == "" {
		cur = o.Currency
	}
	return Money{Amount: m.Amount - o.Amount, Currency: cur}
}

// Percent returns p percent of m, rounded half away from zero to the cent.
func (m Money) Percent(p int64) Money {
	a := m.Amount * p
	var r int64
	if a >= 0 {
		r = (a + 50) / 100
	} else {
		r = (a - 50) / 100
	}
	return Money{Amount: r, Currency: m.Currency}
}
