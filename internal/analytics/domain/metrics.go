package domain

import "time"

// BasisQuarterlyMonthAverage la moyenne trimestrielle sert de proxy mensuel
const BasisQuarterlyMonthAverage = "quarterly_month_average"

// TrendWindow nombre maximal de mois dans la série de tendance
const TrendWindow = 6

// Direction sens de l'évolution mensuelle
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
	DirectionFlat Direction = "FLAT"
)

// BenchmarkSource origine du benchmark retenu pour le ratio
type BenchmarkSource string

const (
	BenchmarkDistrict BenchmarkSource = "DISTRICT"
	BenchmarkCity     BenchmarkSource = "CITY"
	// BenchmarkNone aucun benchmark: le ratio est calculé contre 1 et n'a pas de sens statistique
	BenchmarkNone BenchmarkSource = "NONE"
)

// MonthlyRevenue une ligne de ventes mensuelles déclarée par le commerçant
type MonthlyRevenue struct {
	YearMonth string
	Revenue   int64
	Profit    int64
}

// Percentile classement du commerçant
type Percentile struct {
	Grade            Grade   `json:"grade"`
	Label            string  `json:"label"`
	Ratio            float64 `json:"ratio"`
	BenchmarkRevenue int64   `json:"benchmark_revenue"`
}

// MomGrowth évolution par rapport au mois précédent
type MomGrowth struct {
	Value      float64   `json:"value"`
	Direction  Direction `json:"direction"`
	DiffAmount int64     `json:"diff_amount"`
}

// MonthlyTrend séries alignées pour la visualisation (toutes de même longueur)
type MonthlyTrend struct {
	Months          []string `json:"months"`
	MyStore         []int64  `json:"my_store"`
	IndustryAvgAll  []int64  `json:"industry_avg_all"`
	IndustryAvgDong []int64  `json:"industry_avg_dong"`
	Basis           string   `json:"basis"`
}

// Len retourne la longueur commune des séries
func (t MonthlyTrend) Len() int {
	return len(t.Months)
}

// Aligned vérifie l'invariant de longueur des séries
func (t MonthlyTrend) Aligned() bool {
	n := len(t.Months)
	return n >= 1 && n <= TrendWindow &&
		len(t.MyStore) == n && len(t.IndustryAvgAll) == n && len(t.IndustryAvgDong) == n
}

// LatestComparison dernier point de chaque série
type LatestComparison struct {
	Month           string `json:"month"`
	MyStore         int64  `json:"my_store"`
	IndustryAvgAll  int64  `json:"industry_avg_all"`
	IndustryAvgDong int64  `json:"industry_avg_dong"`
}

// Provenance trace des données de référence utilisées
type Provenance struct {
	SourceQuarter   QuarterKey      `json:"source_quarter"`
	DatasetLatest   QuarterKey      `json:"dataset_latest_quarter"`
	BenchmarkSource BenchmarkSource `json:"benchmark_source"`
	SkippedMonths   []string        `json:"skipped_months,omitempty"`
}

// ComparativeMetrics artefact d'analyse courant d'un commerçant (un seul par commerçant)
type ComparativeMetrics struct {
	TargetYearMonth  string           `json:"target_ym"`
	Percentile       Percentile       `json:"percentile"`
	MomGrowth        MomGrowth        `json:"mom_growth"`
	MonthlyTrend     MonthlyTrend     `json:"monthly_trend"`
	LatestComparison LatestComparison `json:"latest_comparison"`
	Provenance       Provenance       `json:"provenance"`
	CreatedAt        time.Time        `json:"created_at"`
}

// Complete vérifie qu'un artefact peut être persisté sans corrompre le dashboard
func (m *ComparativeMetrics) Complete() bool {
	return m != nil &&
		m.TargetYearMonth != "" &&
		m.MonthlyTrend.Aligned() &&
		m.LatestComparison.Month == m.MonthlyTrend.Months[len(m.MonthlyTrend.Months)-1]
}
