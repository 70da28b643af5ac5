package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidYearMonth est retournée quand une valeur année-mois ne peut pas être lue
var ErrInvalidYearMonth = errors.New("invalid year-month")

// YearMonth représente un mois calendaire (Value Object, immuable)
type YearMonth struct {
	year  int
	month int
}

// NewYearMonth crée un YearMonth avec validation
func NewYearMonth(year, month int) (YearMonth, error) {
	if year < 1000 || year > 9999 {
		return YearMonth{}, fmt.Errorf("%w: year %d", ErrInvalidYearMonth, year)
	}
	if month < 1 || month > 12 {
		return YearMonth{}, fmt.Errorf("%w: month %d", ErrInvalidYearMonth, month)
	}
	return YearMonth{year: year, month: month}, nil
}

// ParseYearMonth lit "YYYY-MM" ou la forme compacte "YYYYMM"
func ParseYearMonth(s string) (YearMonth, error) {
	raw := strings.TrimSpace(s)

	var yearPart, monthPart string
	switch {
	case len(raw) == 7 && raw[4] == '-':
		yearPart, monthPart = raw[:4], raw[5:]
	case len(raw) == 6:
		yearPart, monthPart = raw[:4], raw[4:]
	default:
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidYearMonth, s)
	}

	if !allDigits(yearPart) || !allDigits(monthPart) {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidYearMonth, s)
	}
	year, err := strconv.Atoi(yearPart)
	if err != nil {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidYearMonth, s)
	}
	month, err := strconv.Atoi(monthPart)
	if err != nil {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidYearMonth, s)
	}
	return NewYearMonth(year, month)
}

// allDigits refuse les signes que strconv.Atoi accepterait
func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// Year retourne l'année
func (ym YearMonth) Year() int {
	return ym.year
}

// Month retourne le mois (1-12)
func (ym YearMonth) Month() int {
	return ym.month
}

// Quarter retourne le trimestre (1-4)
func (ym YearMonth) Quarter() int {
	return (ym.month-1)/3 + 1
}

// AddMonths décale de n mois (n peut être négatif)
func (ym YearMonth) AddMonths(n int) YearMonth {
	idx := ym.year*12 + (ym.month - 1) + n
	return YearMonth{year: idx / 12, month: idx%12 + 1}
}

// String retourne la forme canonique "YYYY-MM"
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.year, ym.month)
}
