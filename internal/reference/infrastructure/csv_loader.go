package infrastructure

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"bizit/internal/reference/domain"
)

// ErrSchemaDrift une colonne attendue est absente de l'en-tête
var ErrSchemaDrift = errors.New("reference dataset schema drift")

// monthsPerQuarter diviseur appliqué quand monthlyProxy est actif
const monthsPerQuarter = 3

// SalesColumns noms des colonnes du jeu de ventes estimées
type SalesColumns struct {
	District string `toml:"district"`
	Sector   string `toml:"sector"`
	Quarter  string `toml:"quarter"`
	Revenue  string `toml:"revenue"`
}

// PopulationColumns noms des colonnes du jeu flux/revenus
type PopulationColumns struct {
	District    string `toml:"district"`
	Quarter     string `toml:"quarter"`
	FootTraffic string `toml:"foot_traffic"`
	Income      string `toml:"income"`
	Expenditure string `toml:"expenditure"`
}

// DefaultSalesColumns en-têtes du jeu "서울시 상권분석서비스(추정매출-행정동)"
func DefaultSalesColumns() SalesColumns {
	return SalesColumns{
		District: "행정동_코드",
		Sector:   "서비스_업종_코드",
		Quarter:  "기준_년분기_코드",
		Revenue:  "당월_매출_금액",
	}
}

// DefaultPopulationColumns en-têtes du jeu "소득소비_유동인구"
func DefaultPopulationColumns() PopulationColumns {
	return PopulationColumns{
		District:    "행정동_코드",
		Quarter:     "기준_년분기_코드",
		FootTraffic: "총_유동인구_수",
		Income:      "월_평균_소득_금액",
		Expenditure: "지출_총금액",
	}
}

// CSVLoader charge les jeux publics en lignes typées, validées une seule fois au chargement
type CSVLoader struct {
	sales        SalesColumns
	population   PopulationColumns
	monthlyProxy bool
}

// NewCSVLoader crée un loader.
// AverageRevenue des lignes produites est directement l'unité du benchmark comparé aux ventes
// mensuelles du commerçant. monthlyProxy divise en plus le montant publié par 3 (désactivé par défaut).
func NewCSVLoader(sales SalesColumns, population PopulationColumns, monthlyProxy bool) *CSVLoader {
	return &CSVLoader{
		sales:        sales,
		population:   population,
		monthlyProxy: monthlyProxy,
	}
}

// LoadSalesFile lit le jeu de ventes estimées depuis un fichier
func (l *CSVLoader) LoadSalesFile(path string) (*domain.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmptyDataset, err)
	}
	return l.LoadSales(data)
}

// LoadSales lit le jeu de ventes estimées (UTF-8, repli CP949)
func (l *CSVLoader) LoadSales(data []byte) (*domain.Dataset, error) {
	reader, header, err := openCSV(data)
	if err != nil {
		return nil, err
	}

	idx, err := resolveColumns(header, l.sales.District, l.sales.Sector, l.sales.Quarter, l.sales.Revenue)
	if err != nil {
		return nil, err
	}
	district, sector, quarter, revenue := idx[0], idx[1], idx[2], idx[3]

	var rows []domain.ReferenceRow
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, eris.Wrapf(err, "sales dataset line %d", line)
		}

		q := strings.TrimSpace(record[quarter])
		if !validQuarterCode(q) {
			return nil, eris.Errorf("sales dataset line %d: invalid quarter code %q", line, q)
		}
		// une cellule vide est une erreur, jamais un montant nul
		if strings.TrimSpace(record[revenue]) == "" {
			return nil, eris.Errorf("sales dataset line %d: missing revenue", line)
		}
		amount, err := parseAmount(record[revenue])
		if err != nil {
			return nil, eris.Wrapf(err, "sales dataset line %d", line)
		}
		if l.monthlyProxy {
			amount /= monthsPerQuarter
		}

		rows = append(rows, domain.ReferenceRow{
			DistrictCode:   strings.TrimSpace(record[district]),
			SectorCode:     strings.TrimSpace(record[sector]),
			QuarterCode:    q,
			AverageRevenue: amount,
		})
	}

	if len(rows) == 0 {
		return nil, domain.ErrEmptyDataset
	}
	return domain.NewDataset(rows), nil
}

// LoadPopulationFile lit le jeu flux/revenus depuis un fichier
func (l *CSVLoader) LoadPopulationFile(path string) (*domain.PopulationSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read population dataset %s", path)
	}
	return l.LoadPopulation(data)
}

// LoadPopulation lit le jeu flux/revenus. Les colonnes numériques optionnelles absentes valent 0.
func (l *CSVLoader) LoadPopulation(data []byte) (*domain.PopulationSet, error) {
	reader, header, err := openCSV(data)
	if err != nil {
		return nil, err
	}

	idx, err := resolveColumns(header, l.population.District, l.population.Quarter)
	if err != nil {
		return nil, err
	}
	district, quarter := idx[0], idx[1]
	traffic := columnIndex(header, l.population.FootTraffic)
	income := columnIndex(header, l.population.Income)
	spend := columnIndex(header, l.population.Expenditure)

	var rows []domain.PopulationRow
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, eris.Wrapf(err, "population dataset line %d", line)
		}

		row := domain.PopulationRow{
			DistrictCode: strings.TrimSpace(record[district]),
			QuarterCode:  strings.TrimSpace(record[quarter]),
		}
		for _, f := range []struct {
			col int
			dst *float64
		}{{traffic, &row.FootTraffic}, {income, &row.AverageIncome}, {spend, &row.TotalExpenditure}} {
			if f.col < 0 {
				continue
			}
			v, err := parseAmount(record[f.col])
			if err != nil {
				return nil, eris.Wrapf(err, "population dataset line %d", line)
			}
			*f.dst = v
		}
		rows = append(rows, row)
	}

	return domain.NewPopulationSet(rows), nil
}

// openCSV décode le contenu et lit l'en-tête
func openCSV(data []byte) (*csv.Reader, []string, error) {
	decoded, err := decodeText(data)
	if err != nil {
		return nil, nil, err
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.ReuseRecord = true
	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, domain.ErrEmptyDataset
	}
	if err != nil {
		return nil, nil, eris.Wrap(err, "read csv header")
	}
	// l'en-tête est conservé: ReuseRecord ne s'applique qu'aux lignes suivantes
	header = append([]string(nil), header...)
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	return reader, header, nil
}

// decodeText retire le BOM et convertit le CP949 en UTF-8 si nécessaire
func decodeText(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return data, nil
	}
	out, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), data)
	if err != nil {
		return nil, eris.Wrap(err, "decode cp949")
	}
	return out, nil
}

// resolveColumns retourne l'index de chaque colonne obligatoire
func resolveColumns(header []string, names ...string) ([]int, error) {
	idx := make([]int, len(names))
	var missing []string
	for i, name := range names {
		idx[i] = columnIndex(header, name)
		if idx[i] < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ErrSchemaDrift, strings.Join(missing, ", "))
	}
	return idx, nil
}

func columnIndex(header []string, name string) int {
	if name == "" {
		return -1
	}
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func parseAmount(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid amount %q", raw)
	}
	return v, nil
}

func validQuarterCode(q string) bool {
	if len(q) != 5 {
		return false
	}
	for i := 0; i < 4; i++ {
		if q[i] < '0' || q[i] > '9' {
			return false
		}
	}
	return q[4] >= '1' && q[4] <= '4'
}
