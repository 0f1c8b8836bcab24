// Package services – WorkLogService
//
// WorkLogService keeps the work-tracking ledger: dated lines of billable
// work priced from the tariff table. Every write re-derives the dependent
// fields (period from date, description and price from code, total from
// quantity and price) so stored lines are always consistent. Locked lines
// are read-only; unlocking takes a configured number of confirmations.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-intranet-backend/internal/derive"
	"github.com/tbourn/go-intranet-backend/internal/domain"
	"github.com/tbourn/go-intranet-backend/internal/repo"
	"github.com/tbourn/go-intranet-backend/internal/search"
)

// DefaultUnlockConfirmations is how many confirmations clear a lock.
const DefaultUnlockConfirmations = 8

// Editable work-log fields.
const (
	FieldDate        = "date"
	FieldDescription = "description"
	FieldWorkCode    = "work_code"
	FieldPlate       = "plate"
	FieldQuantity    = "quantity"
	FieldUnitPrice   = "unit_price"
	FieldComment     = "comment"
)

// WorkLogService manages ledger lines.
type WorkLogService struct {
	DB      *gorm.DB
	Tariffs *derive.TariffTable

	// UnlockConfirmations defaults to DefaultUnlockConfirmations.
	UnlockConfirmations int

	// Now is overridable in tests.
	Now func() time.Time

	idxOnce   sync.Once
	tariffIdx search.Index
}

// WorkLogPage is one month of the ledger.
type WorkLogPage struct {
	Month int                  `json:"month"`
	Year  int                  `json:"year"`
	Label string               `json:"label"`
	Lines []domain.WorkLogLine `json:"lines"`
	Total float64              `json:"total"`
}

// WorkLogInput creates a line. Amounts accept JSON numbers as well as
// strings with a decimal comma ("1,5"). An empty Date creates a blank row in the selected
// period.
type WorkLogInput struct {
	Date        string        `json:"date"`
	Description string        `json:"description" validate:"max=255"`
	WorkCode    string        `json:"work_code"   validate:"max=16"`
	Plate       string        `json:"plate"       validate:"max=64"`
	Quantity    derive.Number `json:"quantity"`
	UnitPrice   derive.Number `json:"unit_price"`
	Comment     string        `json:"comment"     validate:"max=2000"`
	Month       int           `json:"month"       validate:"omitempty,gte=1,lte=12"`
	Year        int           `json:"year"        validate:"omitempty,gte=2000,lte=2100"`
}

// UnlockResult reports the progress of an unlock sequence.
type UnlockResult struct {
	Line      *domain.WorkLogLine `json:"line"`
	Remaining int                 `json:"remaining"`
	Unlocked  bool                `json:"unlocked"`
}

func (s *WorkLogService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *WorkLogService) required() int {
	if s.UnlockConfirmations > 0 {
		return s.UnlockConfirmations
	}
	return DefaultUnlockConfirmations
}

func (s *WorkLogService) period(month, year int) (int, int) {
	now := s.now()
	if month < 1 || month > 12 {
		month = int(now.Month())
	}
	if year <= 0 {
		year = now.Year()
	}
	return month, year
}

// List returns the lines of (month, year), current month when zero, with
// the sum of their totals. q filters on description, plate and code.
func (s *WorkLogService) List(ctx context.Context, month, year int, q string) (*WorkLogPage, error) {
	month, year = s.period(month, year)
	ctx, span := otel.Tracer("services/WorkLogService").Start(ctx, "List",
		trace.WithAttributes(attribute.Int("month", month), attribute.Int("year", year)),
	)
	defer span.End()

	lines, err := repo.ListWorkLogLines(ctx, s.DB, month, year)
	if err != nil {
		return nil, err
	}
	lines = search.Filter(lines, q, func(l domain.WorkLogLine) []string {
		return []string{l.Description, l.Plate, l.WorkCode}
	})
	totals := make([]float64, 0, len(lines))
	for _, l := range lines {
		totals = append(totals, l.Total)
	}
	return &WorkLogPage{
		Month: month,
		Year:  year,
		Label: derive.MonthLabelFr(time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)),
		Lines: lines,
		Total: derive.Sum(totals...),
	}, nil
}

// Get returns one line.
func (s *WorkLogService) Get(ctx context.Context, id string) (*domain.WorkLogLine, error) {
	l, err := repo.GetWorkLogLine(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrLineNotFound
	}
	return l, err
}

// Create adds a line from a form, or a blank row dated today (or the first
// of the selected month when today is outside it).
func (s *WorkLogService) Create(ctx context.Context, in WorkLogInput) (*domain.WorkLogLine, error) {
	ctx, span := otel.Tracer("services/WorkLogService").Start(ctx, "Create")
	defer span.End()

	if err := checkStruct(in); err != nil {
		return nil, err
	}

	var day time.Time
	if strings.TrimSpace(in.Date) == "" {
		month, year := s.period(in.Month, in.Year)
		day = s.now()
		day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
		if int(day.Month()) != month || day.Year() != year {
			day = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		}
	} else {
		d, err := derive.ParseDate(in.Date)
		if err != nil {
			return nil, invalid("date: " + err.Error())
		}
		day = d
	}

	l := domain.WorkLogLine{
		Description: normalizeSpaces(in.Description),
		WorkCode:    strings.ToUpper(strings.TrimSpace(in.WorkCode)),
		Plate:       strings.TrimSpace(in.Plate),
		Quantity:    in.Quantity.Float(),
		UnitPrice:   in.UnitPrice.Float(),
		Comment:     strings.TrimSpace(in.Comment),
	}
	setDate(&l, day)
	switch {
	case l.WorkCode != "":
		s.applyCode(&l)
	case l.Description != "":
		s.applyDescription(&l)
	}
	l.Total = derive.Total(l.Quantity, l.UnitPrice)
	return repo.CreateWorkLogLine(ctx, s.DB, l)
}

// Patch sets one field of line id and re-derives the dependent ones.
func (s *WorkLogService) Patch(ctx context.Context, id, field, value string) (*domain.WorkLogLine, error) {
	ctx, span := otel.Tracer("services/WorkLogService").Start(ctx, "Patch",
		trace.WithAttributes(attribute.String("line.id", id), attribute.String("field", field)),
	)
	defer span.End()

	l, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.Locked {
		return nil, ErrLineLocked
	}
	if err := s.apply(l, field, value); err != nil {
		return nil, err
	}
	l.Total = derive.Total(l.Quantity, l.UnitPrice)
	if err := repo.SaveWorkLogLine(ctx, s.DB, l); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrLineNotFound
		}
		return nil, err
	}
	return l, nil
}

// apply writes value into field with the derivations of that field.
func (s *WorkLogService) apply(l *domain.WorkLogLine, field, value string) error {
	switch field {
	case FieldDate:
		d, err := derive.ParseDate(value)
		if err != nil {
			return invalid("date: " + err.Error())
		}
		setDate(l, d)
	case FieldWorkCode:
		l.WorkCode = strings.ToUpper(strings.TrimSpace(value))
		s.applyCode(l)
	case FieldDescription:
		l.Description = normalizeSpaces(value)
		s.applyDescription(l)
	case FieldPlate:
		l.Plate = strings.TrimSpace(value)
	case FieldQuantity:
		l.Quantity = derive.ParseNumber(value)
	case FieldUnitPrice:
		l.UnitPrice = derive.ParseNumber(value)
	case FieldComment:
		l.Comment = strings.TrimSpace(value)
	default:
		return invalid(fmt.Sprintf("field must be one of: %s %s %s %s %s %s %s",
			FieldDate, FieldDescription, FieldWorkCode, FieldPlate, FieldQuantity, FieldUnitPrice, FieldComment))
	}
	if len(l.Description) > 255 || len(l.Plate) > 64 || len(l.WorkCode) > 16 {
		return invalid(field + " is too long")
	}
	return nil
}

func setDate(l *domain.WorkLogLine, d time.Time) {
	p := derive.PeriodOf(d)
	l.Date = derive.FormatDate(d)
	l.Week, l.Month, l.Year = p.Week, p.Month, p.Year
}

// applyCode fills description and price from a known code. Unknown codes
// leave the line as typed.
func (s *WorkLogService) applyCode(l *domain.WorkLogLine) {
	if t, ok := s.Tariffs.ByCode(l.WorkCode); ok {
		l.WorkCode = t.Code
		l.Description = t.Label
		l.UnitPrice = t.Price
	}
}

// applyDescription fills code and price when the description is exactly a
// tariff label.
func (s *WorkLogService) applyDescription(l *domain.WorkLogLine) {
	if t, ok := s.Tariffs.ByLabel(l.Description); ok {
		l.WorkCode = t.Code
		l.Description = t.Label
		l.UnitPrice = t.Price
	}
}

// Lock makes line id read-only under reference (an invoice or statement
// number).
func (s *WorkLogService) Lock(ctx context.Context, id, reference string) (*domain.WorkLogLine, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, invalid("reference is required")
	}
	if len(reference) > 64 {
		return nil, invalid("reference must be at most 64 characters")
	}
	l, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	l.Locked = true
	l.LockReference = reference
	l.UnlockConfirmations = 0
	if err := repo.SaveWorkLogLine(ctx, s.DB, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Unlock records one confirmation. The lock clears, and the counter resets,
// once the configured number of confirmations is reached.
func (s *WorkLogService) Unlock(ctx context.Context, id string) (*UnlockResult, error) {
	ctx, span := otel.Tracer("services/WorkLogService").Start(ctx, "Unlock",
		trace.WithAttributes(attribute.String("line.id", id)),
	)
	defer span.End()

	l, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !l.Locked {
		return nil, ErrLineNotLocked
	}

	need := s.required()
	l.UnlockConfirmations++
	res := &UnlockResult{Line: l}
	if l.UnlockConfirmations >= need {
		l.Locked = false
		l.LockReference = ""
		l.UnlockConfirmations = 0
		res.Unlocked = true
	} else {
		res.Remaining = need - l.UnlockConfirmations
	}
	if err := repo.SaveWorkLogLine(ctx, s.DB, l); err != nil {
		return nil, err
	}
	if res.Unlocked {
		worklogUnlocksTotal.Inc()
	}
	return res, nil
}

// Delete removes an unlocked line.
func (s *WorkLogService) Delete(ctx context.Context, id string) error {
	l, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if l.Locked {
		return ErrLineLocked
	}
	err = repo.DeleteWorkLogLine(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrLineNotFound
	}
	return err
}

// TariffList returns the tariff table.
func (s *WorkLogService) TariffList() []derive.Tariff {
	return s.Tariffs.All()
}

// SuggestTariffs ranks up to k tariffs whose code or label resembles q, for
// completing a description as it is typed.
func (s *WorkLogService) SuggestTariffs(q string, k int) []derive.Tariff {
	all := s.Tariffs.All()
	s.idxOnce.Do(func() {
		docs := make([]search.Doc, 0, len(all))
		for _, t := range all {
			docs = append(docs, search.Doc{ID: t.Code, Fields: []string{t.Code, t.Label}})
		}
		s.tariffIdx = search.NewIndex(docs, search.WithStopwords(tariffStopwords))
	})

	out := make([]derive.Tariff, 0, k)
	for _, r := range s.tariffIdx.TopK(q, k) {
		if t, ok := s.Tariffs.ByCode(r.ID); ok {
			out = append(out, t)
		}
	}
	return out
}

// French articles carry no signal in tariff labels.
var tariffStopwords = []string{"de", "du", "des", "la", "le", "les", "a", "en", "et"}
