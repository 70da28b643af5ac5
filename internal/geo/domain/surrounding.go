package domain

import (
	"errors"
	"sort"
	"strconv"
)

// ErrAddressNotFound l'adresse ne correspond à aucun résultat de géocodage
var ErrAddressNotFound = errors.New("address not found")

// Radii rayons de recherche des commerces concurrents, en mètres
var Radii = []int{500, 1000, 1500, 2000}

// Coordinate point géographique
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GeocodeResult résultat du géocodage d'une adresse
type GeocodeResult struct {
	Coordinate
	AdminCode string `json:"admin_code"`
	DongName  string `json:"admin_dong_name"`
}

// Surrounding commerces concurrents autour du magasin, par rayon
type Surrounding struct {
	Rad500      []Coordinate `json:"rad_500"`
	Rad1000     []Coordinate `json:"rad_1000"`
	Rad1500     []Coordinate `json:"rad_1500"`
	Rad2000     []Coordinate `json:"rad_2000"`
	FailedRadii []int        `json:"failed_radii,omitempty"`
}

// NewSurrounding crée un résultat vide (listes non nulles)
func NewSurrounding() *Surrounding {
	return &Surrounding{
		Rad500:  []Coordinate{},
		Rad1000: []Coordinate{},
		Rad1500: []Coordinate{},
		Rad2000: []Coordinate{},
	}
}

// Set range les coordonnées d'un rayon connu; un rayon inconnu est ignoré
func (s *Surrounding) Set(radius int, coords []Coordinate) {
	if coords == nil {
		coords = []Coordinate{}
	}
	switch radius {
	case 500:
		s.Rad500 = coords
	case 1000:
		s.Rad1000 = coords
	case 1500:
		s.Rad1500 = coords
	case 2000:
		s.Rad2000 = coords
	}
}

// MarkFailed enregistre un rayon dont la collecte a échoué
func (s *Surrounding) MarkFailed(radius int) {
	s.FailedRadii = append(s.FailedRadii, radius)
	sort.Ints(s.FailedRadii)
}

// Summary nombre de concurrents par rayon, clés "rad_<mètres>"
func (s *Surrounding) Summary() map[string]int {
	counts := map[int]int{
		500:  len(s.Rad500),
		1000: len(s.Rad1000),
		1500: len(s.Rad1500),
		2000: len(s.Rad2000),
	}
	out := make(map[string]int, len(Radii))
	for _, radius := range Radii {
		out["rad_"+strconv.Itoa(radius)] = counts[radius]
	}
	return out
}

// Degraded indique qu'au moins un rayon n'a pas pu être collecté
func (s *Surrounding) Degraded() bool {
	return len(s.FailedRadii) > 0
}
