package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGermanDate(t *testing.T) {
	cases := []struct {
		in   string
		iso  string
		fail bool
	}{
		{in: "15.03.2024", iso: "2024-03-15"},
		{in: "01.04.2024", iso: "2024-04-01"},
		{in: " 31.12.2023 ", iso: "2023-12-31"},
		{in: "2024-03-15", fail: true},
		{in: "32.01.2024", fail: true},
		{in: "15.13.2024", fail: true},
		{in: "", fail: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			d, err := ParseGermanDate(tc.in)
			if tc.fail {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.iso, d.ISO())
		})
	}
}

func TestDateGermanRoundTrip(t *testing.T) {
	for _, in := range []string{"01.01.2024", "29.02.2024", "09.11.1989"} {
		d, err := ParseGermanDate(in)
		require.NoError(t, err)
		assert.Equal(t, in, d.German())
	}
}

func TestDateMonthsAgo(t *testing.T) {
	d := NewDate(2024, 4, 15)
	assert.Equal(t, "2024-01-15", d.MonthsAgo(3).ISO())
}

func TestDateValidate(t *testing.T) {
	assert.NoError(t, NewDate(2024, 1, 1).Validate())
	assert.ErrorIs(t, Date{}.Validate(), ErrInvalidDate)
}
