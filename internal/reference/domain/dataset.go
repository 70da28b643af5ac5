package domain

import (
	"errors"
	"sort"
)

// ErrEmptyDataset le jeu de référence ne contient aucune ligne ou n'a pas pu être lu
var ErrEmptyDataset = errors.New("reference dataset is empty or unavailable")

// ReferenceRow une ligne du jeu "추정매출" (ventes estimées par district, secteur, trimestre)
type ReferenceRow struct {
	DistrictCode   string
	SectorCode     string
	QuarterCode    string
	AverageRevenue float64
}

// Dataset instantané immuable du jeu de référence, chargé une fois par lecture
type Dataset struct {
	rows   []ReferenceRow
	latest string
}

// NewDataset construit un Dataset à partir de lignes déjà validées
func NewDataset(rows []ReferenceRow) *Dataset {
	ds := &Dataset{rows: append([]ReferenceRow(nil), rows...)}
	for _, r := range ds.rows {
		if r.QuarterCode > ds.latest {
			ds.latest = r.QuarterCode
		}
	}
	return ds
}

// Len retourne le nombre de lignes
func (d *Dataset) Len() int {
	return len(d.rows)
}

// LatestAvailableQuarter retourne le code trimestre le plus récent du jeu
func (d *Dataset) LatestAvailableQuarter() (string, error) {
	if d == nil || len(d.rows) == 0 {
		return "", ErrEmptyDataset
	}
	return d.latest, nil
}

// AverageRevenue moyenne arithmétique de AverageRevenue par trimestre, filtrée par secteur,
// trimestres et (si non vide) district. Un trimestre sans ligne est absent de la map.
func (d *Dataset) AverageRevenue(sectorCode string, quarters []string, districtCode string) map[string]float64 {
	wanted := make(map[string]struct{}, len(quarters))
	for _, q := range quarters {
		wanted[q] = struct{}{}
	}

	type acc struct {
		sum   float64
		count int
	}
	groups := make(map[string]*acc)
	for _, r := range d.rows {
		if r.SectorCode != sectorCode {
			continue
		}
		if _, ok := wanted[r.QuarterCode]; !ok {
			continue
		}
		if districtCode != "" && r.DistrictCode != districtCode {
			continue
		}
		g, ok := groups[r.QuarterCode]
		if !ok {
			g = &acc{}
			groups[r.QuarterCode] = g
		}
		g.sum += r.AverageRevenue
		g.count++
	}

	out := make(map[string]float64, len(groups))
	for q, g := range groups {
		out[q] = g.sum / float64(g.count)
	}
	return out
}

// Rows retourne les lignes d'un district pour un secteur et des trimestres (contexte LLM)
func (d *Dataset) Rows(sectorCode, districtCode string, quarters []string) []ReferenceRow {
	wanted := make(map[string]struct{}, len(quarters))
	for _, q := range quarters {
		wanted[q] = struct{}{}
	}

	var out []ReferenceRow
	for _, r := range d.rows {
		if r.SectorCode != sectorCode || r.DistrictCode != districtCode {
			continue
		}
		if _, ok := wanted[r.QuarterCode]; !ok {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].QuarterCode < out[j].QuarterCode
	})
	return out
}
