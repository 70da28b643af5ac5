package application

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	analyticsdomain "bizit/internal/analytics/domain"
	geodomain "bizit/internal/geo/domain"
	referencedomain "bizit/internal/reference/domain"
	sharedinfra "bizit/internal/shared/infrastructure"
	"bizit/internal/solution/domain"
	"bizit/internal/solution/infrastructure"
	storedomain "bizit/internal/store/domain"
)

// DefaultListLimit nombre de recommandations retournées par List
const DefaultListLimit = 20

const noData = "데이터 없음"

const systemInstruction = `당신은 소상공인 상권 분석 전문가입니다.
제공된 데이터를 근거로 매출 상승을 위한 구체적인 전략을 3~5가지 제안하세요.

[작성 규칙]
1. 입력 데이터의 영문 키를 그대로 쓰지 말고 자연스러운 한국어로 바꿔 쓰세요.
2. 매출액, 유동인구 수 같은 수치를 근거로 활용하세요.

[포맷 규칙]
응답은 {"title": "...", "solution": "..."} 객체의 JSON 배열이어야 하며 코드 블록 없이 JSON만 반환하세요.`

// Generator produit un texte à partir d'une conversation
type Generator interface {
	Generate(ctx context.Context, req sharedinfra.LLMRequest) (string, error)
}

// StoreReader lit la fiche magasin
type StoreReader interface {
	Get(ctx context.Context, userID string) (*storedomain.StoreProfile, error)
}

// SurroundingReader lit le relevé des concurrents (nil si absent)
type SurroundingReader interface {
	Surrounding(ctx context.Context, userID string) (*geodomain.Surrounding, error)
}

// ReferenceData fournit les jeux publics
type ReferenceData interface {
	Sales() (*referencedomain.Dataset, error)
	Population() *referencedomain.PopulationSet
}

// AnalysisReader lit l'artefact d'analyse courant
type AnalysisReader interface {
	Get(ctx context.Context, userID string) (*analyticsdomain.ComparativeMetrics, error)
}

// SolutionService génère et liste les recommandations
type SolutionService struct {
	stores      StoreReader
	surrounding SurroundingReader
	reference   ReferenceData
	analyses    AnalysisReader
	generator   Generator
	repo        *infrastructure.SolutionRepository
	uow         sharedinfra.UnitOfWork
	logger      *zap.Logger
	now         func() time.Time
}

// NewSolutionService crée le service
func NewSolutionService(
	stores StoreReader,
	surrounding SurroundingReader,
	reference ReferenceData,
	analyses AnalysisReader,
	generator Generator,
	repo *infrastructure.SolutionRepository,
	uow sharedinfra.UnitOfWork,
	logger *zap.Logger,
) *SolutionService {
	return &SolutionService{
		stores:      stores,
		surrounding: surrounding,
		reference:   reference,
		analyses:    analyses,
		generator:   generator,
		repo:        repo,
		uow:         uow,
		logger:      logger,
		now:         time.Now,
	}
}

// Generate construit le contexte du commerçant, interroge le modèle et remplace ses recommandations.
// En cas d'échec, les recommandations existantes sont conservées.
func (s *SolutionService) Generate(ctx context.Context, userID string) ([]domain.Solution, error) {
	profile, err := s.stores.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	prompt, err := s.buildPrompt(ctx, userID, profile)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	text, err := s.generator.Generate(ctx, sharedinfra.LLMRequest{
		System: systemInstruction,
		Turns:  []sharedinfra.Turn{{Role: sharedinfra.RoleUser, Text: prompt}},
		JSON:   true,
	})
	if err != nil {
		return nil, eris.Wrap(err, "generate solutions")
	}

	drafts, err := domain.ParseDrafts(text)
	if err != nil {
		s.logger.Warn("unusable solution response",
			zap.String("user_id", userID),
			zap.String("response", sharedinfra.Truncate(text, 200)),
			zap.Error(err))
		return nil, err
	}

	var saved []domain.Solution
	err = s.uow.Execute(ctx, func(tx *sql.Tx) error {
		var err error
		saved, err = s.repo.WithTx(tx).ReplaceAll(ctx, userID, drafts, s.now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("solutions generated",
		zap.String("user_id", userID),
		zap.Int("count", len(saved)),
		zap.Duration("elapsed", time.Since(start)))
	return saved, nil
}

// List retourne les recommandations les plus récentes
func (s *SolutionService) List(ctx context.Context, userID string, limit int) ([]domain.Solution, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	return s.repo.List(ctx, userID, limit)
}

// buildPrompt assemble fiche, concurrents, flux et ventes estimées du district
func (s *SolutionService) buildPrompt(ctx context.Context, userID string, profile *storedomain.StoreProfile) (string, error) {
	storeJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "encode store context")
	}

	sur, err := s.surrounding.Surrounding(ctx, userID)
	if err != nil {
		return "", err
	}
	if sur == nil {
		sur = geodomain.NewSurrounding()
	}
	counts := sur.Summary()
	countsJSON, err := json.MarshalIndent(counts, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "encode surrounding context")
	}

	population, sales := noData, noData
	district := profile.Location.AdminCode
	quarters := profile.Quarters()
	if district != "" {
		if rows := s.reference.Population().ForDistrict(district, quarters); len(rows) > 0 {
			population = populationCSV(rows)
		}
		ds, err := s.reference.Sales()
		if err != nil {
			s.logger.Warn("sales estimate context unavailable", zap.String("user_id", userID), zap.Error(err))
		} else if rows := ds.Rows(profile.SectorCodeCS, district, quarters); len(rows) > 0 {
			sales = salesCSV(rows)
		}
	}

	var b strings.Builder
	b.WriteString("아래 데이터를 분석해줘.\n\n")
	fmt.Fprintf(&b, "[1. 매장 정보]\n%s\n\n", storeJSON)
	fmt.Fprintf(&b, "[2. 주변 상권 밀집도 (반경별 상가 수)]\n%s\n\n", countsJSON)
	fmt.Fprintf(&b, "[3. 상권 유동인구 데이터 (CSV)]\n%s\n\n", population)
	fmt.Fprintf(&b, "[4. 상권 추정 매출 데이터 (CSV)]\n%s\n", sales)

	metrics, err := s.analyses.Get(ctx, userID)
	switch {
	case err == nil:
		fmt.Fprintf(&b, "\n[5. 업종 비교 분석]\n기준월 %s, 등급 %s (%s), 업종 평균 대비 %.2f배, 전월 대비 %.2f%%\n",
			metrics.TargetYearMonth, metrics.Percentile.Grade, metrics.Percentile.Label,
			metrics.Percentile.Ratio, metrics.MomGrowth.Value)
	case errors.Is(err, sharedinfra.ErrNotFound):
	default:
		return "", err
	}

	return b.String(), nil
}

func populationCSV(rows []referencedomain.PopulationRow) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"행정동_코드", "기준_년분기_코드", "총_유동인구_수", "월_평균_소득_금액", "지출_총금액"})
	for _, r := range rows {
		_ = w.Write([]string{
			r.DistrictCode, r.QuarterCode,
			formatNumber(r.FootTraffic), formatNumber(r.AverageIncome), formatNumber(r.TotalExpenditure),
		})
	}
	w.Flush()
	return buf.String()
}

func salesCSV(rows []referencedomain.ReferenceRow) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"행정동_코드", "서비스_업종_코드", "기준_년분기_코드", "월평균_매출_금액"})
	for _, r := range rows {
		_ = w.Write([]string{r.DistrictCode, r.SectorCode, r.QuarterCode, formatNumber(r.AverageRevenue)})
	}
	w.Flush()
	return buf.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
