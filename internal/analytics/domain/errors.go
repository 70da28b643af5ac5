package domain

import (
	"errors"

	referencedomain "bizit/internal/reference/domain"
)

var (
	// ErrMissingProfile le commerçant n'a pas encore de fiche magasin
	ErrMissingProfile = errors.New("store profile not configured")

	// ErrInsufficientHistory moins de deux mois de ventes déclarés
	ErrInsufficientHistory = errors.New("at least two monthly sales records are required")

	// ErrMalformedDate une valeur année-mois ne peut pas être lue
	ErrMalformedDate = errors.New("malformed year-month")

	// ErrInvalidRevenue un montant de ventes est négatif
	ErrInvalidRevenue = errors.New("revenue cannot be negative")

	// ErrEmptyDataset le jeu de référence est illisible ou vide (bloquant pour tous les commerçants)
	ErrEmptyDataset = referencedomain.ErrEmptyDataset
)

// IsNotReady indique une condition "pas encore prête" propre à un commerçant
func IsNotReady(err error) bool {
	return errors.Is(err, ErrMissingProfile) || errors.Is(err, ErrInsufficientHistory)
}

// IsSystemic indique une panne de configuration qui touche tous les commerçants
func IsSystemic(err error) bool {
	return errors.Is(err, ErrEmptyDataset)
}
