package domain

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	shareddomain "bizit/internal/shared/domain"
)

// ReferenceSource accès en lecture au jeu de référence trimestriel
type ReferenceSource interface {
	LatestAvailableQuarter() (string, error)
	AverageRevenue(sectorCode string, quarters []string, districtCode string) map[string]float64
}

// CalculatorInput données d'entrée d'un calcul pour un commerçant
type CalculatorInput struct {
	Records      []MonthlyRevenue
	SectorCode   string
	DistrictCode string
}

var (
	hundred        = decimal.NewFromInt(100)
	directionBand  = decimal.NewFromInt(1)
	fallbackBench  = decimal.NewFromInt(1)
	growthFromZero = decimal.NewFromInt(100)
)

// datedRecord une ligne de ventes avec son mois lu (ok=false si illisible)
type datedRecord struct {
	MonthlyRevenue
	ym     shareddomain.YearMonth
	ok     bool
	sortBy string
}

// Calculate produit les métriques comparatives d'un commerçant.
//
// Les deux mois les plus récents portent le ratio et la croissance: une date illisible
// parmi eux fait échouer le calcul. Ailleurs dans la fenêtre, la ligne fautive est ignorée
// et listée dans Provenance.SkippedMonths.
func Calculate(in CalculatorInput, ref ReferenceSource) (*ComparativeMetrics, error) {
	if len(in.Records) < 2 {
		return nil, ErrInsufficientHistory
	}

	records := sortRecords(in.Records)
	n := len(records)
	current, previous := records[n-1], records[n-2]
	for _, r := range []datedRecord{previous, current} {
		if !r.ok {
			return nil, fmt.Errorf("%w: %q", ErrMalformedDate, r.YearMonth)
		}
		if r.Revenue < 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRevenue, r.ym)
		}
	}

	latestRaw, err := ref.LatestAvailableQuarter()
	if err != nil {
		return nil, err
	}
	latest := QuarterKey(latestRaw)

	start := n - TrendWindow
	if start < 0 {
		start = 0
	}

	var (
		window  []datedRecord
		skipped []string
	)
	for _, r := range records[start:] {
		if !r.ok || r.Revenue < 0 {
			skipped = append(skipped, r.YearMonth)
			continue
		}
		window = append(window, r)
	}

	// Trimestre corrigé de chaque mois de la fenêtre
	corrected := make([]QuarterKey, len(window))
	seen := make(map[QuarterKey]bool)
	var quarters []string
	for i, r := range window {
		q := AdjustQuarter(QuarterOf(r.ym), latest)
		corrected[i] = q
		if !seen[q] {
			seen[q] = true
			quarters = append(quarters, string(q))
		}
	}

	cityAvg := ref.AverageRevenue(in.SectorCode, quarters, "")
	dongAvg := map[string]float64{}
	if in.DistrictCode != "" {
		dongAvg = ref.AverageRevenue(in.SectorCode, quarters, in.DistrictCode)
	}

	trend := MonthlyTrend{
		Months:          make([]string, len(window)),
		MyStore:         make([]int64, len(window)),
		IndustryAvgAll:  make([]int64, len(window)),
		IndustryAvgDong: make([]int64, len(window)),
		Basis:           BasisQuarterlyMonthAverage,
	}
	for i, r := range window {
		q := string(corrected[i])
		trend.Months[i] = r.ym.String()
		trend.MyStore[i] = r.Revenue
		trend.IndustryAvgAll[i] = int64(cityAvg[q])
		trend.IndustryAvgDong[i] = int64(dongAvg[q])
	}

	currentQuarter := string(corrected[len(corrected)-1])
	benchmark, source := pickBenchmark(dongAvg[currentQuarter], cityAvg[currentQuarter])

	ratio := decimal.NewFromInt(current.Revenue).Div(benchmark)
	grade := ClassifyRatio(ratio)

	last := len(window) - 1
	return &ComparativeMetrics{
		TargetYearMonth: current.ym.String(),
		Percentile: Percentile{
			Grade:            grade,
			Label:            grade.Label(),
			Ratio:            ratio.Round(2).InexactFloat64(),
			BenchmarkRevenue: benchmark.IntPart(),
		},
		MomGrowth:    monthOverMonth(current.Revenue, previous.Revenue),
		MonthlyTrend: trend,
		LatestComparison: LatestComparison{
			Month:           trend.Months[last],
			MyStore:         trend.MyStore[last],
			IndustryAvgAll:  trend.IndustryAvgAll[last],
			IndustryAvgDong: trend.IndustryAvgDong[last],
		},
		Provenance: Provenance{
			SourceQuarter:   QuarterKey(currentQuarter),
			DatasetLatest:   latest,
			BenchmarkSource: source,
			SkippedMonths:   skipped,
		},
	}, nil
}

// sortRecords trie par mois croissant; une date illisible est triée sur sa valeur brute
func sortRecords(in []MonthlyRevenue) []datedRecord {
	out := make([]datedRecord, len(in))
	for i, r := range in {
		d := datedRecord{MonthlyRevenue: r, sortBy: r.YearMonth}
		if ym, err := shareddomain.ParseYearMonth(r.YearMonth); err == nil {
			d.ym, d.ok, d.sortBy = ym, true, ym.String()
		}
		out[i] = d
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].sortBy < out[j].sortBy
	})
	return out
}

// pickBenchmark applique la chaîne de repli district -> ville -> 1
func pickBenchmark(district, city float64) (decimal.Decimal, BenchmarkSource) {
	if district != 0 {
		return decimal.NewFromFloat(district), BenchmarkDistrict
	}
	if city != 0 {
		return decimal.NewFromFloat(city), BenchmarkCity
	}
	return fallbackBench, BenchmarkNone
}

// monthOverMonth calcule la croissance en %, arrondie à 2 décimales
func monthOverMonth(current, previous int64) MomGrowth {
	growth := MomGrowth{DiffAmount: current - previous}

	var value decimal.Decimal
	switch {
	case previous == 0 && current > 0:
		value = growthFromZero
	case previous == 0:
		value = decimal.Zero
	default:
		prev := decimal.NewFromInt(previous)
		value = decimal.NewFromInt(current).Sub(prev).Div(prev).Mul(hundred).Round(2)
	}

	growth.Value = value.InexactFloat64()
	switch {
	case value.GreaterThan(directionBand):
		growth.Direction = DirectionUp
	case value.LessThan(directionBand.Neg()):
		growth.Direction = DirectionDown
	default:
		growth.Direction = DirectionFlat
	}
	return growth
}
