package domain

// PopulationRow une ligne du jeu "소득소비_유동인구" (flux piéton et revenus par district)
type PopulationRow struct {
	DistrictCode     string  `json:"district_code"`
	QuarterCode      string  `json:"quarter_code"`
	FootTraffic      float64 `json:"foot_traffic"`
	AverageIncome    float64 `json:"average_monthly_income"`
	TotalExpenditure float64 `json:"total_expenditure"`
}

// PopulationSet instantané immuable du jeu flux/revenus
type PopulationSet struct {
	rows []PopulationRow
}

// NewPopulationSet construit un PopulationSet
func NewPopulationSet(rows []PopulationRow) *PopulationSet {
	return &PopulationSet{rows: append([]PopulationRow(nil), rows...)}
}

// Len retourne le nombre de lignes
func (p *PopulationSet) Len() int {
	if p == nil {
		return 0
	}
	return len(p.rows)
}

// ForDistrict retourne les lignes d'un district pour les trimestres demandés
func (p *PopulationSet) ForDistrict(districtCode string, quarters []string) []PopulationRow {
	if p == nil {
		return nil
	}
	wanted := make(map[string]struct{}, len(quarters))
	for _, q := range quarters {
		wanted[q] = struct{}{}
	}

	var out []PopulationRow
	for _, r := range p.rows {
		if r.DistrictCode != districtCode {
			continue
		}
		if _, ok := wanted[r.QuarterCode]; ok {
			out = append(out, r)
		}
	}
	return out
}
