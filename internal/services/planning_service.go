// Package services – PlanningService
//
// PlanningService builds the month/week grid of technicians by day and
// saves its cells. A cell is keyed by (date, technician): saving an empty
// cell creates it, saving again overwrites it, clearing an absent cell is a
// no-op.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-intranet-backend/internal/derive"
	"github.com/tbourn/go-intranet-backend/internal/domain"
	"github.com/tbourn/go-intranet-backend/internal/repo"
)

// Planning views.
const (
	ViewMonth = "month"
	ViewWeek  = "week"
)

// PlanningService reads and writes the planning grid.
type PlanningService struct {
	DB        *gorm.DB
	Directory *DirectoryService

	// Now is overridable in tests.
	Now func() time.Time
}

// PlanningDay is one column of the grid.
type PlanningDay struct {
	Date    string `json:"date"`
	Week    int    `json:"week"`
	Weekday string `json:"weekday"`
	Label   string `json:"label"`
}

// Planning is the grid for one month or week.
type Planning struct {
	View        string                         `json:"view"`
	Date        string                         `json:"date"`
	Title       string                         `json:"title"`
	From        string                         `json:"from"`
	To          string                         `json:"to"`
	Days        []PlanningDay                  `json:"days"`
	Technicians []domain.Technician            `json:"technicians"`
	JobSites    []domain.JobSite               `json:"job_sites"`
	Cells       map[string]domain.ScheduleCell `json:"cells"`
}

// CellInput is the editable content of a cell.
type CellInput struct {
	JobSite     string  `json:"job_site"     validate:"max=160"`
	ShortTravel bool    `json:"short_travel"`
	LongTravel  bool    `json:"long_travel"`
	NightWork   bool    `json:"night_work"`
	NightHours  float64 `json:"night_hours"  validate:"gte=0,lte=24"`
	Sector      string  `json:"sector"       validate:"max=120"`
}

// FillInput applies one cell content to every day of a recurrence.
type FillInput struct {
	TechnicianID string    `json:"technician_id" validate:"required"`
	Start        string    `json:"start"         validate:"required"`
	RRule        string    `json:"rrule"         validate:"required"`
	Cell         CellInput `json:"cell"`
}

func (s *PlanningService) today() time.Time {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	t := now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Range resolves the first and last day of a view around date (today when
// empty), clamped to the planning range.
func (s *PlanningService) Range(view, date string) (string, []time.Time, error) {
	day := s.today()
	if strings.TrimSpace(date) != "" {
		d, err := derive.ParseDate(date)
		if err != nil {
			return "", nil, invalid(err.Error())
		}
		day = d
	}
	day = derive.ClampDate(day)

	var days []time.Time
	switch view {
	case "", ViewMonth:
		view = ViewMonth
		days = derive.MonthDays(day)
	case ViewWeek:
		days = derive.WeekDays(day)
	default:
		return "", nil, invalid("view must be one of: month week")
	}
	if len(days) == 0 {
		return "", nil, fmt.Errorf("no days for %s", derive.FormatDate(day))
	}
	return view, days, nil
}

// View builds the grid for view ("month" or "week") around date.
func (s *PlanningService) View(ctx context.Context, view, date string) (*Planning, error) {
	ctx, span := otel.Tracer("services/PlanningService").Start(ctx, "View",
		trace.WithAttributes(attribute.String("view", view), attribute.String("date", date)),
	)
	defer span.End()

	view, days, err := s.Range(view, date)
	if err != nil {
		return nil, err
	}
	from, to := derive.FormatDate(days[0]), derive.FormatDate(days[len(days)-1])

	techs, err := s.Directory.ListTechnicians(ctx, "")
	if err != nil {
		return nil, err
	}
	sites, err := s.Directory.ListJobSites(ctx)
	if err != nil {
		return nil, err
	}
	cells, err := repo.ListCellsInRange(ctx, s.DB, from, to)
	if err != nil {
		return nil, err
	}

	p := &Planning{
		View:        view,
		Date:        from,
		From:        from,
		To:          to,
		Days:        make([]PlanningDay, 0, len(days)),
		Technicians: techs,
		JobSites:    sites,
		Cells:       make(map[string]domain.ScheduleCell, len(cells)),
	}
	if view == ViewMonth {
		p.Title = derive.MonthLabelFr(days[0])
	} else {
		p.Title = fmt.Sprintf("Semaine %d", derive.ISOWeek(days[0]))
	}
	for _, d := range days {
		p.Days = append(p.Days, PlanningDay{
			Date:    derive.FormatDate(d),
			Week:    derive.ISOWeek(d),
			Weekday: derive.WeekdayFr(d),
			Label:   derive.FormatDateFr(d),
		})
	}
	for _, c := range cells {
		p.Cells[c.CellKey] = c
	}
	return p, nil
}

// SaveCell creates or overwrites the cell of (date, technicianID). Night
// hours are only kept when NightWork is set.
func (s *PlanningService) SaveCell(ctx context.Context, date, technicianID string, in CellInput) (*domain.ScheduleCell, error) {
	ctx, span := otel.Tracer("services/PlanningService").Start(ctx, "SaveCell",
		trace.WithAttributes(attribute.String("date", date), attribute.String("technician.id", technicianID)),
	)
	defer span.End()

	day, err := s.checkCellKey(ctx, date, technicianID)
	if err != nil {
		return nil, err
	}
	return s.upsert(ctx, day, technicianID, in)
}

func (s *PlanningService) upsert(ctx context.Context, day time.Time, technicianID string, in CellInput) (*domain.ScheduleCell, error) {
	in.JobSite = normalizeSpaces(in.JobSite)
	in.Sector = normalizeSpaces(in.Sector)
	if err := checkStruct(in); err != nil {
		return nil, err
	}
	if !in.NightWork {
		in.NightHours = 0
	}
	return repo.UpsertCell(ctx, s.DB, domain.ScheduleCell{
		Date:         derive.FormatDate(day),
		TechnicianID: technicianID,
		JobSite:      in.JobSite,
		ShortTravel:  in.ShortTravel,
		LongTravel:   in.LongTravel,
		NightWork:    in.NightWork,
		NightHours:   in.NightHours,
		Sector:       in.Sector,
	})
}

// ClearCell deletes the cell of (date, technicianID). It reports whether a
// cell existed; clearing an empty cell is not an error.
func (s *PlanningService) ClearCell(ctx context.Context, date, technicianID string) (bool, error) {
	day, err := derive.ParseDate(date)
	if err != nil {
		return false, invalid(err.Error())
	}
	return repo.DeleteCellByKey(ctx, s.DB, domain.CellKey(derive.FormatDate(day), technicianID))
}

// Fill writes in.Cell on every day of the recurrence in.RRule starting at
// in.Start. Each day is an independent upsert.
func (s *PlanningService) Fill(ctx context.Context, in FillInput) ([]domain.ScheduleCell, error) {
	ctx, span := otel.Tracer("services/PlanningService").Start(ctx, "Fill",
		trace.WithAttributes(attribute.String("technician.id", in.TechnicianID), attribute.String("rrule", in.RRule)),
	)
	defer span.End()

	if err := checkStruct(in); err != nil {
		return nil, err
	}
	start, err := s.checkCellKey(ctx, in.Start, in.TechnicianID)
	if err != nil {
		return nil, err
	}
	days, err := derive.Occurrences(in.RRule, start)
	if err != nil {
		return nil, invalid(err.Error())
	}

	out := make([]domain.ScheduleCell, 0, len(days))
	for _, d := range days {
		c, err := s.upsert(ctx, d, in.TechnicianID, in.Cell)
		if err != nil {
			return out, err
		}
		out = append(out, *c)
	}
	span.SetAttributes(attribute.Int("cells", len(out)))
	return out, nil
}

// checkCellKey parses date, checks it lies in the planning range and that
// the technician exists.
func (s *PlanningService) checkCellKey(ctx context.Context, date, technicianID string) (time.Time, error) {
	day, err := derive.ParseDate(date)
	if err != nil {
		return time.Time{}, invalid(err.Error())
	}
	if day.Before(derive.PlanningMin) || day.After(derive.PlanningMax) {
		return time.Time{}, invalid(fmt.Sprintf("date must be between %s and %s",
			derive.FormatDate(derive.PlanningMin), derive.FormatDate(derive.PlanningMax)))
	}
	if _, err := s.Directory.GetTechnician(ctx, technicianID); err != nil {
		return time.Time{}, err
	}
	return day, nil
}
