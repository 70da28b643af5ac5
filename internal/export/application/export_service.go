package application

import (
	"context"
	"fmt"

	analyticsdomain "bizit/internal/analytics/domain"
	"bizit/internal/export/domain"
	"bizit/internal/export/infrastructure"
	storedomain "bizit/internal/store/domain"
)

// AnalysisReader lit l'artefact d'analyse courant
type AnalysisReader interface {
	Get(ctx context.Context, userID string) (*analyticsdomain.ComparativeMetrics, error)
}

// StoreReader lit la fiche magasin
type StoreReader interface {
	Get(ctx context.Context, userID string) (*storedomain.StoreProfile, error)
}

// ExportResult fichier prêt à être servi
type ExportResult struct {
	Data        []byte
	Filename    string
	ContentType string
}

// ExportService exporte la tendance comparative et les ventes déclarées
type ExportService struct {
	analyses AnalysisReader
	stores   StoreReader
}

// NewExportService crée une nouvelle instance de ExportService
func NewExportService(analyses AnalysisReader, stores StoreReader) *ExportService {
	return &ExportService{analyses: analyses, stores: stores}
}

// Export produit le fichier demandé par le job
func (s *ExportService) Export(ctx context.Context, job *domain.ExportJob) (*ExportResult, error) {
	var (
		headers []string
		rows    [][]string
		err     error
	)
	switch job.ExportType() {
	case domain.ExportTypeSales:
		headers = domain.SalesHeaders()
		rows, err = s.salesRows(ctx, job.UserID())
	default:
		headers = domain.TrendHeaders()
		rows, err = s.trendRows(ctx, job.UserID())
	}
	if err != nil {
		return nil, err
	}

	var data []byte
	if job.Format() == domain.ExportFormatXLSX {
		data, err = infrastructure.WriteXLSX(string(job.ExportType()), headers, rows)
	} else {
		data, err = infrastructure.WriteCSV(headers, rows)
	}
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		Data:        data,
		Filename:    job.Filename(),
		ContentType: job.ContentType(),
	}, nil
}

func (s *ExportService) trendRows(ctx context.Context, userID string) ([][]string, error) {
	metrics, err := s.analyses.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	trend := metrics.MonthlyTrend
	rows := make([][]string, 0, trend.Len())
	for i := 0; i < trend.Len(); i++ {
		row, err := domain.NewTrendExportRow(trend.Months[i], trend.MyStore[i], trend.IndustryAvgAll[i], trend.IndustryAvgDong[i])
		if err != nil {
			return nil, err
		}
		rows = append(rows, row.ToCSVRow())
	}
	return rows, nil
}

func (s *ExportService) salesRows(ctx context.Context, userID string) ([][]string, error) {
	profile, err := s.stores.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(profile.SalesLogs))
	for _, log := range profile.SalesLogs {
		revenue, err := log.RevenueMoney()
		if err != nil {
			return nil, fmt.Errorf("%s revenue: %w", log.YearMonth, err)
		}
		row := domain.SalesExportRow{YearMonth: log.YearMonth, Revenue: revenue, Profit: log.Profit}
		rows = append(rows, row.ToCSVRow())
	}
	return rows, nil
}
