package bankcsv

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHeader = "Auftragskonto;Buchungstag;Valutadatum;Buchungstext;Verwendungszweck;" +
	"Glaeubiger ID;Mandatsreferenz;Kundenreferenz (End-to-End);Sammlerreferenz;" +
	"Lastschrift Ursprungsbetrag;Auslagenersatz Ruecklastschrift;" +
	"Beguenstigter/Zahlungspflichtiger;Kontonummer/IBAN;BIC (SWIFT-Code);Betrag;Waehrung"

func TestDecode(t *testing.T) {
	input := testHeader + "\n" +
		`DE89;15.03.2024;15.03.2024;LASTSCHRIFT;"Spotify Premium";;;;;;;SPOTIFY;DE00;XXXX;-9,99;EUR` + "\n" +
		"DE89;01.04.2024;01.04.2024;GUTSCHRIFT;Gehalt April;;;;;;;;;;2450,00;EUR\n"

	rows, warnings, err := Decode(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, rows, 2)

	assert.Equal(t, "15.03.2024", rows[0].Get(ColBookingDate))
	assert.Equal(t, "Spotify Premium", rows[0].Get(ColPurpose))
	assert.Equal(t, "SPOTIFY", rows[0].Get(ColRecipient))
	assert.Equal(t, "-9,99", rows[0].Get(ColAmount))
	assert.Equal(t, "2450,00", rows[1].Get(ColAmount))
}

func TestDecodeLatin1(t *testing.T) {
	// 0xFC is "ü" in ISO 8859-1; the export is not UTF-8.
	input := []byte("Buchungstag;Verwendungszweck;Betrag\n" +
		"15.03.2024;Geb\xfchren M\xe4rz;-4,50\n")

	rows, _, err := Decode(bytes.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Gebühren März", rows[0].Get(ColPurpose))
}

func TestDecodeSkipsEmptyLinesAndShortRows(t *testing.T) {
	input := "\n\nBuchungstag;Verwendungszweck;Betrag\n" +
		"\n" +
		"15.03.2024;Miete\n" + // missing trailing column -> empty string
		"16.03.2024;Einkauf;-12,34\n"

	rows, warnings, err := Decode(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, rows, 2)
	assert.Equal(t, "", rows[0].Get(ColAmount))
	assert.Equal(t, "-12,34", rows[1].Get(ColAmount))
}

func TestDecodeDropsMalformedRows(t *testing.T) {
	input := "Buchungstag;Verwendungszweck;Betrag\n" +
		"15.03.2024;\"broken quote;-1,00\n" // unterminated quote

	_, warnings, err := Decode(strings.NewReader(input))
	assert.ErrorIs(t, err, ErrNoRows)
	assert.NotEmpty(t, warnings)
}

func TestDecodeNoHeader(t *testing.T) {
	_, _, err := Decode(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestDecodeHeaderOnly(t *testing.T) {
	_, _, err := Decode(strings.NewReader(testHeader + "\n"))
	assert.ErrorIs(t, err, ErrNoRows)
}
