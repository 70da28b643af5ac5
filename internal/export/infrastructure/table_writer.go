package infrastructure

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
)

// batchSize lignes écrites entre deux flush du writer CSV
const batchSize = 1000

// WriteCSV écrit un tableau CSV en mémoire, précédé d'un BOM pour Excel
func WriteCSV(headers []string, rows [][]string) ([]byte, error) {
	buffer := bytes.NewBuffer(make([]byte, 0, 16*1024))
	buffer.WriteString("\xef\xbb\xbf")
	writer := csv.NewWriter(buffer)

	if err := writer.Write(headers); err != nil {
		return nil, eris.Wrap(err, "write csv headers")
	}
	for i, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, eris.Wrapf(err, "write csv row %d", i)
		}
		if (i+1)%batchSize == 0 {
			writer.Flush()
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, eris.Wrap(err, "flush csv")
	}
	return buffer.Bytes(), nil
}

// WriteXLSX écrit un classeur d'une feuille. Les cellules numériques sont écrites en nombres.
func WriteXLSX(sheet string, headers []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, eris.Wrap(err, "rename sheet")
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return nil, eris.Wrap(err, "open stream writer")
	}

	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = excelize.Cell{Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, eris.Wrap(err, "write xlsx headers")
	}

	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				cells[j] = n
			} else {
				cells[j] = v
			}
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, eris.Wrap(err, "cell name")
		}
		if err := sw.SetRow(axis, cells); err != nil {
			return nil, eris.Wrapf(err, "write xlsx row %d", i)
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, eris.Wrap(err, "flush xlsx")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, eris.Wrap(err, "encode xlsx")
	}
	return buf.Bytes(), nil
}
