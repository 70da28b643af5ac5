package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// CurrencyKRW devise par défaut des montants déclarés par les commerçants
const CurrencyKRW = "KRW"

// Money représente une valeur monétaire avec garanties d'invariants
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney crée une nouvelle instance de Money avec validation
func NewMoney(amount int64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, errors.New("amount cannot be negative")
	}
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{
		amount:   decimal.NewFromInt(amount),
		currency: currency,
	}, nil
}

// Won retourne le montant arrondi à l'unité, tronqué vers zéro comme int() côté dashboard
func (m Money) Won() int64 {
	return m.amount.Truncate(0).IntPart()
}

// Sub retourne la différence signée entre deux montants de même devise
func (m Money) Sub(other Money) (decimal.Decimal, error) {
	if m.currency != other.currency {
		return decimal.Zero, fmt.Errorf("cannot subtract different currencies: %s and %s", m.currency, other.currency)
	}
	return m.amount.Sub(other.amount), nil
}

// IsZero vérifie si le montant est zéro
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}
