// Package services defines the business logic of the intranet: sessions,
// the technician and job site directory, the planning grid, leave requests,
// chat and the work-log ledger. This file centralizes common service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

// Session errors.
var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong
	// password. Both cases are indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrLoginRateLimited is returned when an email exceeded its login
	// attempt budget.
	ErrLoginRateLimited = errors.New("too many login attempts")

	// ErrSessionActive is returned when a login is attempted while the
	// presented token still belongs to a live session.
	ErrSessionActive = errors.New("a session is already active")

	// ErrUnauthenticated covers missing, invalid, expired or logged-out tokens.
	ErrUnauthenticated = errors.New("not signed in")
)

// Generic errors.
var (
	// ErrValidation wraps every input validation failure; the wrapped
	// message names the offending field.
	ErrValidation = errors.New("validation failed")

	// ErrForbidden is returned when the caller may not act on a resource.
	ErrForbidden = errors.New("forbidden")
)

// Directory and planning errors.
var (
	ErrTechnicianNotFound = errors.New("technician not found")
	ErrJobSiteNotFound    = errors.New("job site not found")
	ErrDuplicateJobSite   = errors.New("a job site with this name already exists")
)

// Leave errors.
var (
	ErrLeaveNotFound = errors.New("leave request not found")

	// ErrLeaveNotEditable is returned when a requester edits a request that
	// has already been decided.
	ErrLeaveNotEditable = errors.New("request can no longer be modified")
)

// Chat errors.
var (
	ErrMessageNotFound = errors.New("message not found")

	// ErrEmptyMessage is returned when a message has neither text nor an
	// attachment.
	ErrEmptyMessage = errors.New("message needs text or an attachment")

	// ErrNotParticipant is returned when reading a conversation the caller
	// is not part of.
	ErrNotParticipant = errors.New("not a participant of this conversation")
)

// Ledger errors.
var (
	ErrLineNotFound = errors.New("work-log line not found")

	// ErrLineLocked is returned for edits and deletes of a locked line.
	ErrLineLocked = errors.New("line is locked")

	// ErrLineNotLocked is returned when confirming an unlock on an open line.
	ErrLineNotLocked = errors.New("line is not locked")
)
