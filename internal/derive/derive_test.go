package derive

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestISOWeek(t *testing.T) {
	cases := map[string]int{
		"2026-01-01": 1,  // Thursday
		"2025-12-29": 1,  // Monday of ISO week 1 of 2026
		"2027-01-01": 53, // Friday, still week 53 of 2026
		"2025-12-01": 49,
		"2024-12-30": 1,
	}
	for in, want := range cases {
		assert.Equal(t, want, ISOWeek(day(t, in)), in)
	}
}

func TestPeriodOf_UsesCalendarYear(t *testing.T) {
	p := PeriodOf(day(t, "2025-12-29"))
	assert.Equal(t, Period{Week: 1, Month: 12, Year: 2025}, p)
}

func TestParseDate_Strict(t *testing.T) {
	_, err := ParseDate("02/12/2025")
	assert.ErrorIs(t, err, ErrInvalidDate)
	_, err = ParseDate("2025-13-01")
	assert.ErrorIs(t, err, ErrInvalidDate)
	d, err := ParseDate(" 2025-12-02 ")
	require.NoError(t, err)
	assert.Equal(t, "2025-12-02", FormatDate(d))
}

func TestTotal(t *testing.T) {
	assert.Equal(t, 3.15, Total(3, 1.05))
	assert.Equal(t, 0.0, Total(0, 55))
	assert.Equal(t, 110.0, Total(2, 55))
	assert.Equal(t, 0.35, Total(0.875, 0.4)) // 0.35 exactly
	assert.Equal(t, 0.01, Total(0.025, 0.2)) // 0.005 rounds away from zero
	assert.Equal(t, 262.15, Total(107, 2.45))
}

func TestSum(t *testing.T) {
	assert.Equal(t, 0.3, Sum(0.1, 0.2))
	assert.Equal(t, 0.0, Sum())
}

func TestParseNumber(t *testing.T) {
	cases := map[string]float64{
		"12,5":      12.5,
		"12.5":      12.5,
		" 3 ":       3,
		"1 234,50":  1234.5,
		"abc":       0,
		"":          0,
		"1,2,3":     0,
		"-4,25":     -4.25,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseNumber(in), "ParseNumber(%q)", in)
	}
}

func TestNumber_DecodesNumbersAndStrings(t *testing.T) {
	var in struct {
		Quantity  Number `json:"quantity"`
		UnitPrice Number `json:"unit_price"`
		Missing   Number `json:"missing"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"quantity":3,"unit_price":"10,5","missing":null}`), &in))
	assert.Equal(t, 3.0, in.Quantity.Float())
	assert.Equal(t, 10.5, in.UnitPrice.Float())
	assert.Equal(t, 0.0, in.Missing.Float())

	require.NoError(t, json.Unmarshal([]byte(`{"quantity":true,"unit_price":"n/a"}`), &in))
	assert.Equal(t, 0.0, in.Quantity.Float())
	assert.Equal(t, 0.0, in.UnitPrice.Float())
}

func TestConversationKey(t *testing.T) {
	assert.Equal(t, "a_b", ConversationKey([]string{"b", "a"}))
	assert.Equal(t, ConversationKey([]string{"a", "b"}), ConversationKey([]string{"b", "a"}))
	assert.Equal(t, "a_b_c", ConversationKey([]string{"c", " a ", "b", "a", ""}))
	assert.Equal(t, "", ConversationKey(nil))

	assert.True(t, KeyHasParticipant("a_b_c", "b"))
	assert.False(t, KeyHasParticipant("a_bc", "b"))
	assert.False(t, KeyHasParticipant("a_b", ""))
}

func TestFormatDateFr(t *testing.T) {
	assert.Equal(t, "02 Décembre 2025", FormatDateFr(day(t, "2025-12-02")))
	assert.Equal(t, "15 Août 2026", FormatDateFr(day(t, "2026-08-15")))
	assert.Equal(t, "Février 2026", MonthLabelFr(day(t, "2026-02-10")))
	assert.Equal(t, "mardi", WeekdayFr(day(t, "2025-12-02")))
}
