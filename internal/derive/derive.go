// Package derive holds the pure computations the intranet applies before a
// write: ISO week numbers, money totals, decimal-comma parsing, conversation
// keys, the tariff table, and the planning calendar. Nothing in this package
// touches storage, so every client sees the same derived values.
package derive

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire and storage format of calendar days.
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned for strings that are not YYYY-MM-DD days.
var ErrInvalidDate = errors.New("date must be YYYY-MM-DD")

// ParseDate parses a strict YYYY-MM-DD day in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// ISOWeek returns the ISO-8601 week number of t (weeks start on Monday and
// week 1 contains the year's first Thursday).
func ISOWeek(t time.Time) int {
	_, w := t.ISOWeek()
	return w
}

// Period is the (week, month, year) triple stored next to a dated line.
type Period struct {
	Week  int
	Month int
	Year  int
}

// PeriodOf derives the ledger period of a day. Month and Year are calendar
// values, not ISO-week years.
func PeriodOf(t time.Time) Period {
	return Period{Week: ISOWeek(t), Month: int(t.Month()), Year: t.Year()}
}

// Total returns quantity × unit price rounded half away from zero to two
// decimals. The product is computed in decimal so 3 × 1.05 is exactly 3.15.
func Total(quantity, unitPrice float64) float64 {
	v, _ := decimal.NewFromFloat(quantity).
		Mul(decimal.NewFromFloat(unitPrice)).
		Round(2).
		Float64()
	return v
}

// Sum adds totals in decimal and rounds to cents.
func Sum(values ...float64) float64 {
	acc := decimal.Zero
	for _, v := range values {
		acc = acc.Add(decimal.NewFromFloat(v))
	}
	out, _ := acc.Round(2).Float64()
	return out
}

// ParseNumber reads a user-typed amount. A decimal comma is accepted and
// grouping spaces are ignored; anything that is not a number yields 0.
func ParseNumber(s string) float64 {
	s = strings.NewReplacer(",", ".", " ", "", "\u00a0", "", "\u202f", "").Replace(strings.TrimSpace(s))
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}

// Number is an amount as typed by a client. It decodes from a JSON number,
// a string such as "1,5", or null; Float applies ParseNumber so bad input
// becomes 0 instead of failing the request.
type Number string

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*n = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = Number(s)
	default:
		*n = Number(b)
	}
	return nil
}

// Float returns the parsed value of n.
func (n Number) Float() float64 { return ParseNumber(string(n)) }

// ConversationKey derives the stable key of a conversation from its
// participant ids: blanks are dropped, duplicates removed, the rest sorted
// lexicographically and joined with "_". Any permutation of the same
// participants yields the same key.
func ConversationKey(ids []string) string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return strings.Join(out, "_")
}

// KeyHasParticipant reports whether id is one of the participants encoded
// in key.
func KeyHasParticipant(key, id string) bool {
	if id == "" {
		return false
	}
	for _, p := range strings.Split(key, "_") {
		if p == id {
			return true
		}
	}
	return false
}
