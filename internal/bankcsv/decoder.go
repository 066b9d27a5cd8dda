// Package bankcsv parses the semicolon-delimited Sparkasse account export
// and normalises its rows into canonical transactions.
package bankcsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/charmap"
)

// Well-known export columns. The normaliser keys off these; any other
// column is carried along untouched.
const (
	ColBookingDate = "Buchungstag"
	ColValueDate   = "Valutadatum"
	ColBookingText = "Buchungstext"
	ColPurpose     = "Verwendungszweck"
	ColRecipient   = "Beguenstigter/Zahlungspflichtiger"
	ColAmount      = "Betrag"
	ColCurrency    = "Waehrung"
)

var (
	ErrNoHeader = errors.New("no header row found")
	ErrNoRows   = errors.New("no transaction rows found")
)

// RawRow is one CSV line keyed by header name. Columns preserves header
// order for display only.
type RawRow struct {
	Columns []string
	Values  map[string]string
}

func (r RawRow) Get(col string) string {
	return r.Values[col]
}

// Decode reads a Latin-1 encoded Sparkasse CSV export and returns its rows.
// Malformed lines are dropped and reported as warnings; Decode only fails
// when no header or no rows at all could be read.
func Decode(r io.Reader) ([]RawRow, []string, error) {
	// The export is written with a single-byte code page, not UTF-8.
	cr := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r))
	cr.Comma = ';'
	cr.FieldsPerRecord = -1

	var warnings []string

	header, err := readHeader(cr, &warnings)
	if err != nil {
		return nil, warnings, err
	}

	var rows []RawRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			warnings = append(warnings, err.Error())
			continue
		}
		rows = append(rows, makeRow(header, rec))
	}

	if len(rows) == 0 {
		return nil, warnings, ErrNoRows
	}
	return rows, warnings, nil
}

func readHeader(cr *csv.Reader, warnings *[]string) ([]string, error) {
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return nil, ErrNoHeader
		}
		if err != nil {
			*warnings = append(*warnings, fmt.Sprintf("header candidate: %v", err))
			continue
		}
		if len(rec) == 1 && rec[0] == "" {
			continue
		}
		return rec, nil
	}
}

// makeRow zips header and record. Missing trailing fields become empty
// strings; surplus fields are ignored.
func makeRow(header, rec []string) RawRow {
	values := make(map[string]string, len(header))
	for i, col := range header {
		if i < len(rec) {
			values[col] = rec[i]
		} else {
			values[col] = ""
		}
	}
	return RawRow{Columns: header, Values: values}
}
