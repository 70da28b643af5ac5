package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bizit/internal/shared/domain"
)

// ErrInvalidExport format ou type d'export inconnu
var ErrInvalidExport = errors.New("invalid export request")

// ExportFormat représente le format d'export
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatXLSX ExportFormat = "xlsx"
)

// ExportType représente le type d'export
type ExportType string

const (
	ExportTypeTrend ExportType = "trend"
	ExportTypeSales ExportType = "sales"
)

// ExportJob représente un job d'export
type ExportJob struct {
	format     ExportFormat
	exportType ExportType
	userID     string
	createdAt  time.Time
}

// NewExportJob crée un nouveau job d'export avec validation
func NewExportJob(format ExportFormat, exportType ExportType, userID string) (*ExportJob, error) {
	format = ExportFormat(strings.ToLower(string(format)))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatXLSX {
		return nil, fmt.Errorf("%w: format %q", ErrInvalidExport, format)
	}
	if exportType == "" {
		exportType = ExportTypeTrend
	}
	if exportType != ExportTypeTrend && exportType != ExportTypeSales {
		return nil, fmt.Errorf("%w: type %q", ErrInvalidExport, exportType)
	}

	return &ExportJob{
		format:     format,
		exportType: exportType,
		userID:     userID,
		createdAt:  time.Now(),
	}, nil
}

// Format retourne le format d'export
func (ej *ExportJob) Format() ExportFormat {
	return ej.format
}

// ExportType retourne le type d'export
func (ej *ExportJob) ExportType() ExportType {
	return ej.exportType
}

// UserID retourne le commerçant exporté
func (ej *ExportJob) UserID() string {
	return ej.userID
}

// CreatedAt retourne la date de création
func (ej *ExportJob) CreatedAt() time.Time {
	return ej.createdAt
}

// Filename nom de fichier proposé au téléchargement
func (ej *ExportJob) Filename() string {
	return fmt.Sprintf("bizit_%s_%s.%s", ej.exportType, ej.createdAt.Format("20060102"), ej.format)
}

// ContentType type MIME de la réponse
func (ej *ExportJob) ContentType() string {
	if ej.format == ExportFormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// TrendExportRow une ligne de la série de tendance
type TrendExportRow struct {
	Month           string
	MyStore         domain.Money
	IndustryAvgAll  domain.Money
	IndustryAvgDong domain.Money
}

// NewTrendExportRow crée une ligne; les montants négatifs sont refusés
func NewTrendExportRow(month string, myStore, avgAll, avgDong int64) (*TrendExportRow, error) {
	mine, err := domain.NewMoney(myStore, domain.CurrencyKRW)
	if err != nil {
		return nil, fmt.Errorf("%s my_store: %w", month, err)
	}
	all, err := domain.NewMoney(avgAll, domain.CurrencyKRW)
	if err != nil {
		return nil, fmt.Errorf("%s industry_avg_all: %w", month, err)
	}
	dong, err := domain.NewMoney(avgDong, domain.CurrencyKRW)
	if err != nil {
		return nil, fmt.Errorf("%s industry_avg_dong: %w", month, err)
	}
	return &TrendExportRow{Month: month, MyStore: mine, IndustryAvgAll: all, IndustryAvgDong: dong}, nil
}

// GapToDistrict écart signé avec la moyenne du district (0 sans donnée district)
func (r *TrendExportRow) GapToDistrict() int64 {
	if r.IndustryAvgDong.IsZero() {
		return 0
	}
	gap, _ := r.MyStore.Sub(r.IndustryAvgDong)
	return gap.IntPart()
}

// ToCSVRow convertit en tableau pour CSV
func (r *TrendExportRow) ToCSVRow() []string {
	return []string{
		r.Month,
		strconv.FormatInt(r.MyStore.Won(), 10),
		strconv.FormatInt(r.IndustryAvgAll.Won(), 10),
		strconv.FormatInt(r.IndustryAvgDong.Won(), 10),
		strconv.FormatInt(r.GapToDistrict(), 10),
	}
}

// TrendHeaders retourne les en-têtes de l'export de tendance
func TrendHeaders() []string {
	return []string{"month", "my_store", "industry_avg_all", "industry_avg_dong", "gap_to_dong"}
}

// SalesExportRow une ligne de ventes déclarées
type SalesExportRow struct {
	YearMonth string
	Revenue   domain.Money
	Profit    int64
}

// ToCSVRow convertit en tableau pour CSV
func (r *SalesExportRow) ToCSVRow() []string {
	return []string{
		r.YearMonth,
		strconv.FormatInt(r.Revenue.Won(), 10),
		strconv.FormatInt(r.Profit, 10),
	}
}

// SalesHeaders retourne les en-têtes de l'export des ventes, ceux relus par l'import
func SalesHeaders() []string {
	return []string{"년월", "매출", "순수익"}
}
