package infrastructure

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"bizit/internal/store/domain"
)

// ErrUnsupportedFile extension de fichier non prise en charge
var ErrUnsupportedFile = errors.New("unsupported sales file, expected .csv or .xlsx")

// En-têtes attendus du fichier de ventes exporté par les caisses
const (
	headerYearMonth = "년월"
	headerRevenue   = "매출"
	headerProfit    = "순수익"
)

// ParseSalesFile extrait les ventes mensuelles d'un fichier .csv ou .xlsx.
// Les lignes dont les montants ne sont pas numériques sont ignorées.
func ParseSalesFile(name string, data []byte) ([]domain.SalesLog, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return parseSalesCSV(data)
	case ".xlsx":
		return parseSalesXLSX(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, name)
	}
}

func parseSalesCSV(data []byte) ([]domain.SalesLog, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		decoded, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), data)
		if err != nil {
			return nil, eris.Wrap(err, "decode cp949 sales file")
		}
		data = decoded
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "read sales csv")
		}
		rows = append(rows, record)
	}
	return salesFromRows(rows), nil
}

func parseSalesXLSX(data []byte) ([]domain.SalesLog, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrap(err, "open sales workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []domain.SalesLog{}, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, eris.Wrapf(err, "read sheet %s", sheets[0])
	}
	return salesFromRows(rows), nil
}

// salesFromRows la première ligne est l'en-tête; sans colonnes 년월/매출 aucune vente n'est extraite
func salesFromRows(rows [][]string) []domain.SalesLog {
	logs := make([]domain.SalesLog, 0)
	if len(rows) == 0 {
		return logs
	}

	ymCol, revenueCol, profitCol := -1, -1, -1
	for i, h := range rows[0] {
		switch strings.TrimSpace(h) {
		case headerYearMonth:
			ymCol = i
		case headerRevenue:
			revenueCol = i
		case headerProfit:
			profitCol = i
		}
	}
	if ymCol < 0 || revenueCol < 0 {
		return logs
	}

	for _, row := range rows[1:] {
		ym := cell(row, ymCol)
		if ym == "" {
			continue
		}
		revenue, err := parseWon(cell(row, revenueCol))
		if err != nil {
			continue
		}
		profit, err := parseWon(cell(row, profitCol))
		if err != nil {
			continue
		}
		logs = append(logs, domain.SalesLog{YearMonth: ym, Revenue: revenue, Profit: profit})
	}
	return logs
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func parseWon(raw string) (int64, error) {
	s := strings.ReplaceAll(raw, ",", "")
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
