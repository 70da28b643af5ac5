package domain

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestNewExportJob(t *testing.T) {
	job, err := NewExportJob("", "", "owner@bizit.kr")
	if err != nil {
		t.Fatalf("NewExportJob: %v", err)
	}
	if job.Format() != ExportFormatCSV || job.ExportType() != ExportTypeTrend || job.UserID() != "owner@bizit.kr" {
		t.Errorf("defaults = %s %s %s", job.Format(), job.ExportType(), job.UserID())
	}
	if !strings.HasPrefix(job.Filename(), "bizit_trend_") || !strings.HasSuffix(job.Filename(), ".csv") {
		t.Errorf("Filename() = %s", job.Filename())
	}
	if job.ContentType() != "text/csv; charset=utf-8" {
		t.Errorf("ContentType() = %s", job.ContentType())
	}

	xlsx, err := NewExportJob("XLSX", ExportTypeSales, "owner@bizit.kr")
	if err != nil {
		t.Fatal(err)
	}
	if xlsx.Format() != ExportFormatXLSX || !strings.HasSuffix(xlsx.Filename(), ".xlsx") || !strings.Contains(xlsx.ContentType(), "spreadsheetml") {
		t.Errorf("xlsx job = %s %s", xlsx.Filename(), xlsx.ContentType())
	}
}

func TestNewExportJob_Invalid(t *testing.T) {
	if _, err := NewExportJob("pdf", ExportTypeTrend, "u"); !errors.Is(err, ErrInvalidExport) {
		t.Errorf("format err = %v", err)
	}
	if _, err := NewExportJob(ExportFormatCSV, "orders", "u"); !errors.Is(err, ErrInvalidExport) {
		t.Errorf("type err = %v", err)
	}
}

func TestTrendExportRow(t *testing.T) {
	row, err := NewTrendExportRow("2025-07", 10_000_000, 9_000_000, 9_500_000)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"2025-07", "10000000", "9000000", "9500000", "500000"}
	if got := row.ToCSVRow(); !reflect.DeepEqual(got, want) {
		t.Errorf("ToCSVRow() = %v", got)
	}

	noDong, _ := NewTrendExportRow("2025-07", 10_000_000, 9_000_000, 0)
	if noDong.GapToDistrict() != 0 {
		t.Errorf("gap without district = %d", noDong.GapToDistrict())
	}

	below, _ := NewTrendExportRow("2025-07", 8_000_000, 0, 9_500_000)
	if below.GapToDistrict() != -1_500_000 {
		t.Errorf("gap = %d", below.GapToDistrict())
	}

	if _, err := NewTrendExportRow("2025-07", -1, 0, 0); err == nil {
		t.Error("negative amount should be rejected")
	}
	if len(TrendHeaders()) != len(want) {
		t.Error("headers and rows differ in width")
	}
}
