package domain

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

// ========================================
// Test Helpers
// ========================================

// fakeReference jeu de référence en mémoire: district ("" = ville) -> trimestre -> moyenne
type fakeReference struct {
	latest string
	err    error
	avg    map[string]map[string]float64
	calls  []string
}

func (f *fakeReference) LatestAvailableQuarter() (string, error) {
	return f.latest, f.err
}

func (f *fakeReference) AverageRevenue(sector string, quarters []string, district string) map[string]float64 {
	f.calls = append(f.calls, fmt.Sprintf("%s|%s|%v", sector, district, quarters))
	out := make(map[string]float64)
	for _, q := range quarters {
		if v, ok := f.avg[district][q]; ok {
			out[q] = v
		}
	}
	return out
}

func records(pairs ...interface{}) []MonthlyRevenue {
	var out []MonthlyRevenue
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, MonthlyRevenue{YearMonth: pairs[i].(string), Revenue: int64(pairs[i+1].(int))})
	}
	return out
}

// ========================================
// Tests: Quarter mapping
// ========================================

func TestYearMonthToQuarter_AllMonths(t *testing.T) {
	want := []string{"1", "1", "1", "2", "2", "2", "3", "3", "3", "4", "4", "4"}
	for m := 1; m <= 12; m++ {
		q, err := YearMonthToQuarter(fmt.Sprintf("2025-%02d", m))
		if err != nil {
			t.Fatalf("month %d: %v", m, err)
		}
		if string(q) != "2025"+want[m-1] {
			t.Errorf("month %d: got %s", m, q)
		}
		if !q.Valid() {
			t.Errorf("month %d: %s not valid", m, q)
		}
	}
}

func TestYearMonthToQuarter_Boundaries(t *testing.T) {
	for in, want := range map[string]QuarterKey{"2025-09": "20253", "2025-10": "20254", "202401": "20241"} {
		got, err := YearMonthToQuarter(in)
		if err != nil || got != want {
			t.Errorf("YearMonthToQuarter(%q) = %s, %v; want %s", in, got, err, want)
		}
	}
}

func TestYearMonthToQuarter_Malformed(t *testing.T) {
	for _, in := range []string{"2025-13", "2025-00", "July 2025", ""} {
		if _, err := YearMonthToQuarter(in); !errors.Is(err, ErrMalformedDate) {
			t.Errorf("YearMonthToQuarter(%q) err = %v, want ErrMalformedDate", in, err)
		}
	}
}

func TestAdjustQuarter(t *testing.T) {
	if got := AdjustQuarter("20254", "20253"); got != "20253" {
		t.Errorf("future quarter not clamped: %s", got)
	}
	if got := AdjustQuarter("20252", "20253"); got != "20252" {
		t.Errorf("published quarter changed: %s", got)
	}
	if got := AdjustQuarter("20261", "20254"); got != "20254" {
		t.Errorf("year boundary: %s", got)
	}
	if QuarterKey("20255").Valid() || QuarterKey("2025").Valid() {
		t.Error("invalid quarter codes accepted")
	}
}

// ========================================
// Tests: Percentile classification
// ========================================

func TestClassifyRatio_Boundaries(t *testing.T) {
	tests := []struct {
		ratio string
		want  Grade
	}{
		{"2.00", GradeTop},
		{"1.30", GradeTop},
		{"1.2999", GradeHigh},
		{"1.15", GradeHigh},
		{"1.1499", GradeUpperMid},
		{"1.05", GradeUpperMid},
		{"1.0499", GradeMid},
		{"0.95", GradeMid},
		{"0.9499", GradeLow},
		{"0.80", GradeLow},
		{"0.7999", GradeBottom},
		{"0", GradeBottom},
	}
	for _, tt := range tests {
		if got := ClassifyRatio(decimal.RequireFromString(tt.ratio)); got != tt.want {
			t.Errorf("ClassifyRatio(%s) = %s, want %s", tt.ratio, got, tt.want)
		}
	}
}

func TestGradeLabels(t *testing.T) {
	for _, g := range []Grade{GradeTop, GradeHigh, GradeUpperMid, GradeMid, GradeLow, GradeBottom} {
		if g.Label() == "" {
			t.Errorf("grade %s has no label", g)
		}
	}
	if GradeMid.Label() != "평균 수준" {
		t.Errorf("MID label = %q", GradeMid.Label())
	}
}

// ========================================
// Tests: Calculate
// ========================================

func TestCalculate_EndToEnd(t *testing.T) {
	ref := &fakeReference{
		latest: "20253",
		avg: map[string]map[string]float64{
			"":         {"20252": 8_700_000, "20253": 9_000_000},
			"11680640": {"20252": 9_100_000, "20253": 9_500_000},
		},
	}

	m, err := Calculate(CalculatorInput{
		Records:      records("2025-07", 10_000_000, "2025-06", 9_000_000),
		SectorCode:   "CS100001",
		DistrictCode: "11680640",
	}, ref)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if m.TargetYearMonth != "2025-07" {
		t.Errorf("TargetYearMonth = %s", m.TargetYearMonth)
	}
	if m.Percentile.Grade != GradeUpperMid {
		t.Errorf("grade = %s, want UPPER_MID", m.Percentile.Grade)
	}
	if m.Percentile.Ratio != 1.05 {
		t.Errorf("ratio = %v, want 1.05", m.Percentile.Ratio)
	}
	if m.Percentile.BenchmarkRevenue != 9_500_000 {
		t.Errorf("benchmark = %d", m.Percentile.BenchmarkRevenue)
	}
	if m.MomGrowth.Value != 11.11 || m.MomGrowth.Direction != DirectionUp {
		t.Errorf("mom = %+v, want 11.11 UP", m.MomGrowth)
	}
	if m.MomGrowth.DiffAmount != 1_000_000 {
		t.Errorf("diff = %d", m.MomGrowth.DiffAmount)
	}

	wantTrend := MonthlyTrend{
		Months:          []string{"2025-06", "2025-07"},
		MyStore:         []int64{9_000_000, 10_000_000},
		IndustryAvgAll:  []int64{8_700_000, 9_000_000},
		IndustryAvgDong: []int64{9_100_000, 9_500_000},
		Basis:           BasisQuarterlyMonthAverage,
	}
	if !reflect.DeepEqual(m.MonthlyTrend, wantTrend) {
		t.Errorf("trend = %+v", m.MonthlyTrend)
	}
	if m.LatestComparison != (LatestComparison{Month: "2025-07", MyStore: 10_000_000, IndustryAvgAll: 9_000_000, IndustryAvgDong: 9_500_000}) {
		t.Errorf("latest = %+v", m.LatestComparison)
	}
	if m.Provenance.BenchmarkSource != BenchmarkDistrict || m.Provenance.SourceQuarter != "20253" {
		t.Errorf("provenance = %+v", m.Provenance)
	}
	if !m.Complete() {
		t.Error("artifact should be complete")
	}
}

func TestCalculate_ClassifiesOnUnroundedRatio(t *testing.T) {
	ref := &fakeReference{latest: "20253", avg: map[string]map[string]float64{"": {"20253": 1_000_000}}}

	m, err := Calculate(CalculatorInput{Records: records("2025-07", 900_000, "2025-08", 1_049_999), SectorCode: "CS1"}, ref)
	if err != nil {
		t.Fatal(err)
	}
	// 1.049999 s'affiche 1.05 mais reste sous le seuil UPPER_MID
	if m.Percentile.Ratio != 1.05 || m.Percentile.Grade != GradeMid {
		t.Errorf("percentile = %+v", m.Percentile)
	}
}

func TestCalculate_FutureMonthsUseLatestQuarter(t *testing.T) {
	ref := &fakeReference{latest: "20253", avg: map[string]map[string]float64{"": {"20253": 5_000_000}}}

	m, err := Calculate(CalculatorInput{Records: records("2025-10", 5_000_000, "2025-11", 5_000_000), SectorCode: "CS1"}, ref)
	if err != nil {
		t.Fatal(err)
	}
	if m.Provenance.SourceQuarter != "20253" || m.Provenance.DatasetLatest != "20253" {
		t.Errorf("provenance = %+v", m.Provenance)
	}
	if m.MonthlyTrend.IndustryAvgAll[0] != 5_000_000 || m.MonthlyTrend.IndustryAvgAll[1] != 5_000_000 {
		t.Errorf("city series = %v", m.MonthlyTrend.IndustryAvgAll)
	}
	if m.Percentile.Grade != GradeMid || m.MomGrowth.Direction != DirectionFlat {
		t.Errorf("grade %s direction %s", m.Percentile.Grade, m.MomGrowth.Direction)
	}
}

func TestCalculate_BenchmarkFallback(t *testing.T) {
	t.Run("city when district missing", func(t *testing.T) {
		ref := &fakeReference{latest: "20253", avg: map[string]map[string]float64{"": {"20253": 8_000_000}}}
		m, err := Calculate(CalculatorInput{Records: records("2025-06", 1, "2025-07", 8_000_000), SectorCode: "CS1", DistrictCode: "11110515"}, ref)
		if err != nil {
			t.Fatal(err)
		}
		if m.Provenance.BenchmarkSource != BenchmarkCity || m.Percentile.BenchmarkRevenue != 8_000_000 {
			t.Errorf("percentile = %+v, source %s", m.Percentile, m.Provenance.BenchmarkSource)
		}
		if m.MonthlyTrend.IndustryAvgDong[1] != 0 {
			t.Errorf("dong series = %v, want zeros", m.MonthlyTrend.IndustryAvgDong)
		}
	})

	t.Run("no district code skips district lookup", func(t *testing.T) {
		ref := &fakeReference{latest: "20253", avg: map[string]map[string]float64{"": {"20253": 8_000_000}}}
		if _, err := Calculate(CalculatorInput{Records: records("2025-06", 1, "2025-07", 2), SectorCode: "CS1"}, ref); err != nil {
			t.Fatal(err)
		}
		if len(ref.calls) != 1 {
			t.Errorf("AverageRevenue called %d times, want 1", len(ref.calls))
		}
	})

	t.Run("no benchmark at all", func(t *testing.T) {
		ref := &fakeReference{latest: "20253"}
		m, err := Calculate(CalculatorInput{Records: records("2025-06", 100, "2025-07", 200), SectorCode: "CS9"}, ref)
		if err != nil {
			t.Fatal(err)
		}
		if m.Provenance.BenchmarkSource != BenchmarkNone || m.Percentile.BenchmarkRevenue != 1 {
			t.Errorf("percentile = %+v", m.Percentile)
		}
		if m.Percentile.Grade != GradeTop || m.Percentile.Ratio != 200 {
			t.Errorf("percentile = %+v", m.Percentile)
		}
	})
}

func TestCalculate_MomGrowth(t *testing.T) {
	tests := []struct {
		name     string
		prev     int
		cur      int
		want     float64
		wantDir  Direction
		wantDiff int64
	}{
		{"from zero", 0, 500_000, 100, DirectionUp, 500_000},
		{"both zero", 0, 0, 0, DirectionFlat, 0},
		{"small dip is flat", 10_000_000, 9_950_000, -0.5, DirectionFlat, -50_000},
		{"one percent is flat", 1_000_000, 1_010_000, 1, DirectionFlat, 10_000},
		{"decline", 10_000_000, 9_000_000, -10, DirectionDown, -1_000_000},
		{"growth", 3_000_000, 4_000_000, 33.33, DirectionUp, 1_000_000},
	}

	ref := &fakeReference{latest: "20253", avg: map[string]map[string]float64{"": {"20252": 1_000_000}}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Calculate(CalculatorInput{Records: records("2025-04", tt.prev, "2025-05", tt.cur), SectorCode: "CS1"}, ref)
			if err != nil {
				t.Fatal(err)
			}
			if m.MomGrowth.Value != tt.want || m.MomGrowth.Direction != tt.wantDir || m.MomGrowth.DiffAmount != tt.wantDiff {
				t.Errorf("mom = %+v, want %v %s %d", m.MomGrowth, tt.want, tt.wantDir, tt.wantDiff)
			}
		})
	}
}

func TestCalculate_TrendWindow(t *testing.T) {
	ref := &fakeReference{latest: "20254"}
	var in []MonthlyRevenue
	for m := 1; m <= 9; m++ {
		in = append(in, MonthlyRevenue{YearMonth: fmt.Sprintf("2025-%02d", m), Revenue: int64(m * 1000)})
	}

	out, err := Calculate(CalculatorInput{Records: in, SectorCode: "CS1"}, ref)
	if err != nil {
		t.Fatal(err)
	}
	if out.MonthlyTrend.Len() != TrendWindow || !out.MonthlyTrend.Aligned() {
		t.Fatalf("trend = %+v", out.MonthlyTrend)
	}
	if out.MonthlyTrend.Months[0] != "2025-04" || out.LatestComparison.Month != "2025-09" {
		t.Errorf("window = %v", out.MonthlyTrend.Months)
	}
}

func TestCalculate_SkipsMalformedOlderMonths(t *testing.T) {
	ref := &fakeReference{latest: "20253"}
	in := []MonthlyRevenue{
		{YearMonth: "0000-xx", Revenue: 10},
		{YearMonth: "2025-05", Revenue: -5},
		{YearMonth: "2025-06", Revenue: 100},
		{YearMonth: "2025-07", Revenue: 120},
	}

	m, err := Calculate(CalculatorInput{Records: in, SectorCode: "CS1"}, ref)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(m.Provenance.SkippedMonths, []string{"0000-xx", "2025-05"}) {
		t.Errorf("skipped = %v", m.Provenance.SkippedMonths)
	}
	if !reflect.DeepEqual(m.MonthlyTrend.Months, []string{"2025-06", "2025-07"}) {
		t.Errorf("months = %v", m.MonthlyTrend.Months)
	}
}

func TestCalculate_Errors(t *testing.T) {
	ref := &fakeReference{latest: "20253"}

	tests := []struct {
		name    string
		records []MonthlyRevenue
		ref     ReferenceSource
		want    error
	}{
		{"no records", nil, ref, ErrInsufficientHistory},
		{"single record", records("2025-07", 1), ref, ErrInsufficientHistory},
		{"malformed latest month", records("2025-06", 1, "2025-99", 2), ref, ErrMalformedDate},
		{"negative current revenue", records("2025-06", 1, "2025-07", -2), ref, ErrInvalidRevenue},
		{"dataset unavailable", records("2025-06", 1, "2025-07", 2), &fakeReference{err: ErrEmptyDataset}, ErrEmptyDataset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Calculate(CalculatorInput{Records: tt.records, SectorCode: "CS1"}, tt.ref)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if m != nil {
				t.Error("no artifact expected on error")
			}
		})
	}
}

func TestErrorClassification(t *testing.T) {
	if !IsNotReady(fmt.Errorf("wrap: %w", ErrMissingProfile)) || !IsNotReady(ErrInsufficientHistory) {
		t.Error("not-ready errors misclassified")
	}
	if IsNotReady(ErrMalformedDate) || !IsSystemic(ErrEmptyDataset) || IsSystemic(ErrInvalidRevenue) {
		t.Error("error classification mismatch")
	}
}

func TestComplete_RejectsPartialArtifact(t *testing.T) {
	var nilMetrics *ComparativeMetrics
	if nilMetrics.Complete() {
		t.Error("nil artifact reported complete")
	}

	m := &ComparativeMetrics{
		TargetYearMonth: "2025-07",
		MonthlyTrend:    MonthlyTrend{Months: []string{"2025-07"}, MyStore: []int64{1}, IndustryAvgAll: []int64{1}},
	}
	if m.Complete() {
		t.Error("misaligned trend reported complete")
	}
}

// ========================================
// Benchmarks
// ========================================

func BenchmarkCalculate_TwelveMonths(b *testing.B) {
	ref := &fakeReference{latest: "20254", avg: map[string]map[string]float64{
		"":         {"20251": 1, "20252": 2, "20253": 3, "20254": 4},
		"11680640": {"20251": 1, "20252": 2, "20253": 3, "20254": 4},
	}}
	var in []MonthlyRevenue
	for m := 1; m <= 12; m++ {
		in = append(in, MonthlyRevenue{YearMonth: fmt.Sprintf("2025-%02d", m), Revenue: int64(m) * 1_000_000})
	}
	input := CalculatorInput{Records: in, SectorCode: "CS1", DistrictCode: "11680640"}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Calculate(input, ref); err != nil {
			b.Fatal(err)
		}
	}
}
