package derive

import (
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var frenchMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

var frenchDays = [...]string{
	"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi",
}

// FormatDateFr renders a day as "02 Décembre 2025".
func FormatDateFr(t time.Time) string {
	return fmt.Sprintf("%02d %s %d", t.Day(), titleFr(frenchMonths[t.Month()-1]), t.Year())
}

// MonthLabelFr renders "Décembre 2025" for grid headers.
func MonthLabelFr(t time.Time) string {
	return titleFr(frenchMonths[t.Month()-1]) + " " + fmt.Sprint(t.Year())
}

// WeekdayFr returns the lower-case French weekday name.
func WeekdayFr(t time.Time) string { return frenchDays[t.Weekday()] }

// titleFr capitalises s. Casers are stateful, so one is built per call.
func titleFr(s string) string { return cases.Title(language.French).String(s) }
