package bankcsv

import (
	"strings"

	"haushalt/internal/core"
)

// Normalise maps a raw export row to the canonical transaction shape. The
// second return is false when the row lacks a parseable booking date or
// amount; such rows are dropped silently.
func Normalise(row RawRow) (core.ParsedTransaction, bool) {
	date, err := core.ParseGermanDate(row.Get(ColBookingDate))
	if err != nil {
		return core.ParsedTransaction{}, false
	}

	raw := strings.TrimSpace(row.Get(ColAmount))
	if raw == "" {
		return core.ParsedTransaction{}, false
	}
	signed, err := core.ParseGermanAmount(raw)
	if err != nil {
		return core.ParsedTransaction{}, false
	}

	description := row.Get(ColPurpose)
	if description == "" {
		description = row.Get(ColBookingText)
	}

	return core.ParsedTransaction{
		Date:        date,
		Amount:      signed.Abs(),
		IsIncome:    signed.IsPositive(),
		Description: description,
		Recipient:   strings.TrimSpace(row.Get(ColRecipient)),
	}, true
}

// NormaliseAll applies Normalise over all rows, keeping input order.
func NormaliseAll(rows []RawRow) []core.ParsedTransaction {
	txs := make([]core.ParsedTransaction, 0, len(rows))
	for _, row := range rows {
		if tx, ok := Normalise(row); ok {
			txs = append(txs, tx)
		}
	}
	return txs
}
