package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

// Separator used by the tabular result files.
const Separator = '\t'

// WriteTSV writes the table with a "num" index column. NaN cells are
// written literally as "NaN" and round-trip through ReadTSV.
func (t *Table) WriteTSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = Separator

	header := append([]string{"num"}, t.Columns...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, num := range t.Index {
		row := t.rows[num]
		fields := make([]string, 0, len(row)+1)
		fields = append(fields, strconv.Itoa(num))
		for _, v := range row {
			fields = append(fields, formatValue(v))
		}
		if err := cw.Write(fields); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveTSV writes the table to a file.
func (t *Table) SaveTSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := t.WriteTSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadTSV loads a table previously written by WriteTSV.
func ReadTSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = Separator

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 1 || header[0] != "num" {
		return nil, fmt.Errorf("unexpected header %v: first column must be num", header)
	}
	t := NewTable(header[1:])

	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		num, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("bad frame num %q: %w", fields[0], err)
		}
		row := make([]float64, len(fields)-1)
		for i, field := range fields[1:] {
			row[i], err = parseValue(field)
			if err != nil {
				return nil, fmt.Errorf("frame %d column %s: %w", num, t.Columns[i], err)
			}
		}
		if err := t.SetRow(num, row); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// LoadTSV loads a table from a file.
func LoadTSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTSV(f)
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseValue(s string) (float64, error) {
	if s == "NaN" || s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
