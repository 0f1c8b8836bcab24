// Package services – LeaveService
//
// LeaveService handles leave requests: employees file and edit their own
// pending requests, admins decide on them and annotate them. A decision
// flags the request as unseen until the requester acknowledges it.
package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-intranet-backend/internal/derive"
	"github.com/tbourn/go-intranet-backend/internal/domain"
	"github.com/tbourn/go-intranet-backend/internal/repo"
)

// LeaveService manages leave requests.
type LeaveService struct {
	DB *gorm.DB
}

// LeaveInput is what a requester submits.
type LeaveInput struct {
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date"   validate:"required"`
	Comment   string `json:"comment"    validate:"max=2000"`
}

// DecisionInput is what an admin submits. A nil AdminComment keeps the
// stored one.
type DecisionInput struct {
	Status       string  `json:"status"        validate:"required,oneof=pending approved denied"`
	AdminComment *string `json:"admin_comment" validate:"omitempty,max=2000"`
}

func (in LeaveInput) check() (LeaveInput, error) {
	in.Comment = strings.TrimSpace(in.Comment)
	if err := checkStruct(in); err != nil {
		return in, err
	}
	start, err := derive.ParseDate(in.StartDate)
	if err != nil {
		return in, invalid("start_date: " + err.Error())
	}
	end, err := derive.ParseDate(in.EndDate)
	if err != nil {
		return in, invalid("end_date: " + err.Error())
	}
	if end.Before(start) {
		return in, invalid("end_date must not be before start_date")
	}
	in.StartDate, in.EndDate = derive.FormatDate(start), derive.FormatDate(end)
	return in, nil
}

// Mine lists the requester's own requests, newest first.
func (s *LeaveService) Mine(ctx context.Context, requesterID string) ([]domain.LeaveRequest, error) {
	return repo.ListLeaveByRequester(ctx, s.DB, requesterID)
}

// Get returns request id if requesterID filed it.
func (s *LeaveService) Get(ctx context.Context, requesterID, id string) (*domain.LeaveRequest, error) {
	l, err := repo.GetLeave(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && l.RequesterID != requesterID) {
		return nil, ErrLeaveNotFound
	}
	return l, err
}

// Create files a pending request. Nothing is written when validation fails.
func (s *LeaveService) Create(ctx context.Context, requesterID, requesterName string, in LeaveInput) (*domain.LeaveRequest, error) {
	ctx, span := otel.Tracer("services/LeaveService").Start(ctx, "Create",
		trace.WithAttributes(attribute.String("user.id", requesterID)),
	)
	defer span.End()

	in, err := in.check()
	if err != nil {
		return nil, err
	}
	return repo.CreateLeave(ctx, s.DB, domain.LeaveRequest{
		RequesterID:   requesterID,
		RequesterName: requesterName,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		Comment:       in.Comment,
	})
}

// Update edits the requester's own request while it is still pending.
func (s *LeaveService) Update(ctx context.Context, requesterID, id string, in LeaveInput) (*domain.LeaveRequest, error) {
	ctx, span := otel.Tracer("services/LeaveService").Start(ctx, "Update",
		trace.WithAttributes(attribute.String("user.id", requesterID), attribute.String("leave.id", id)),
	)
	defer span.End()

	in, err := in.check()
	if err != nil {
		return nil, err
	}
	cur, err := s.Get(ctx, requesterID, id)
	if err != nil {
		return nil, err
	}
	if cur.Status != domain.LeavePending {
		return nil, ErrLeaveNotEditable
	}
	err = repo.UpdateLeave(ctx, s.DB, id, domain.LeavePending, map[string]any{
		"start_date": in.StartDate,
		"end_date":   in.EndDate,
		"comment":    in.Comment,
	})
	if errors.Is(err, repo.ErrNotFound) {
		// Decided between the read and the write.
		return nil, ErrLeaveNotEditable
	}
	if err != nil {
		return nil, err
	}
	return repo.GetLeave(ctx, s.DB, id)
}

// MarkSeen records that the requester saw the latest decision.
func (s *LeaveService) MarkSeen(ctx context.Context, requesterID, id string) (*domain.LeaveRequest, error) {
	if _, err := s.Get(ctx, requesterID, id); err != nil {
		return nil, err
	}
	if err := repo.UpdateLeave(ctx, s.DB, id, "", map[string]any{"seen_by_requester": true}); err != nil {
		return nil, err
	}
	return repo.GetLeave(ctx, s.DB, id)
}

// AdminList returns every request, pending first then newest first, and the
// number of pending requests.
func (s *LeaveService) AdminList(ctx context.Context) ([]domain.LeaveRequest, int64, error) {
	ctx, span := otel.Tracer("services/LeaveService").Start(ctx, "AdminList")
	defer span.End()

	items, err := repo.ListLeave(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	SortLeaveForReview(items)
	var pending int64
	for _, l := range items {
		if l.Status == domain.LeavePending {
			pending++
		}
	}
	return items, pending, nil
}

// SortLeaveForReview puts pending requests first, each group newest first.
func SortLeaveForReview(items []domain.LeaveRequest) {
	sort.SliceStable(items, func(i, j int) bool {
		pi, pj := items[i].Status == domain.LeavePending, items[j].Status == domain.LeavePending
		if pi != pj {
			return pi
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

// Decide sets the status of request id. An approval or denial flags the
// request unseen; moving it back to pending clears the flag.
func (s *LeaveService) Decide(ctx context.Context, id string, in DecisionInput) (*domain.LeaveRequest, error) {
	ctx, span := otel.Tracer("services/LeaveService").Start(ctx, "Decide",
		trace.WithAttributes(attribute.String("leave.id", id), attribute.String("status", in.Status)),
	)
	defer span.End()

	in.Status = strings.ToLower(strings.TrimSpace(in.Status))
	if err := checkStruct(in); err != nil {
		return nil, err
	}
	fields := map[string]any{
		"status":            in.Status,
		"seen_by_requester": in.Status == domain.LeavePending,
	}
	if in.AdminComment != nil {
		fields["admin_comment"] = strings.TrimSpace(*in.AdminComment)
	}
	if err := repo.UpdateLeave(ctx, s.DB, id, "", fields); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrLeaveNotFound
		}
		return nil, err
	}
	leaveDecisionsTotal.WithLabelValues(in.Status).Inc()
	return repo.GetLeave(ctx, s.DB, id)
}

// Comment saves the admin comment of request id without touching its
// status.
func (s *LeaveService) Comment(ctx context.Context, id, comment string) (*domain.LeaveRequest, error) {
	comment = strings.TrimSpace(comment)
	if len(comment) > 2000 {
		return nil, invalid("admin_comment must be at most 2000 characters")
	}
	if err := repo.UpdateLeave(ctx, s.DB, id, "", map[string]any{"admin_comment": comment}); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrLeaveNotFound
		}
		return nil, err
	}
	return repo.GetLeave(ctx, s.DB, id)
}
