package domain

import (
	"fmt"

	shareddomain "bizit/internal/shared/domain"
)

// QuarterKey code trimestre "YYYYQ" du jeu de référence (ex: "20253").
// L'année ayant toujours 4 chiffres, l'ordre lexicographique est l'ordre chronologique.
type QuarterKey string

// YearMonthToQuarter convertit "YYYY-MM" (ou "YYYYMM") en code trimestre
func YearMonthToQuarter(ym string) (QuarterKey, error) {
	parsed, err := shareddomain.ParseYearMonth(ym)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrMalformedDate, ym)
	}
	return QuarterOf(parsed), nil
}

// QuarterOf retourne le code trimestre d'un mois déjà validé
func QuarterOf(ym shareddomain.YearMonth) QuarterKey {
	return QuarterKey(fmt.Sprintf("%04d%d", ym.Year(), ym.Quarter()))
}

// Valid vérifie le format "YYYYQ" avec Q dans 1..4
func (q QuarterKey) Valid() bool {
	if len(q) != 5 {
		return false
	}
	for i := 0; i < 4; i++ {
		if q[i] < '0' || q[i] > '9' {
			return false
		}
	}
	return q[4] >= '1' && q[4] <= '4'
}

// After indique si q est strictement postérieur à other
func (q QuarterKey) After(other QuarterKey) bool {
	return q > other
}

// AdjustQuarter corrige un trimestre par rapport à l'horizon publié du jeu de référence:
// un trimestre futur (non encore publié) est remplacé par le dernier trimestre disponible.
func AdjustQuarter(q, latest QuarterKey) QuarterKey {
	if q.After(latest) {
		return latest
	}
	return q
}
