package services

import (
	"context"

	"github.com/tbourn/go-intranet-backend/internal/domain"
)

// MenuEntry is one item of the dashboard menu.
type MenuEntry struct {
	Label string `json:"label"`
	Path  string `json:"path"`
	Admin bool   `json:"admin,omitempty"`
}

var menu = []MenuEntry{
	{Label: "Planning", Path: "/planning"},
	{Label: "Inventaire", Path: "/inventaire"},
	{Label: "Congés", Path: "/conges"},
	{Label: "Chat", Path: "/chat"},
	{Label: "Suivi travaux", Path: "/suivi-travaux"},
	{Label: "Gestion", Path: "/gestion", Admin: true},
}

// Dashboard is the landing payload of a signed-in account.
type Dashboard struct {
	Account        *domain.Account `json:"account"`
	Menu           []MenuEntry     `json:"menu"`
	UnseenDecision int             `json:"unseen_decisions"`
	PendingLeave   int64           `json:"pending_leave,omitempty"`
}

// DashboardService assembles the landing page.
type DashboardService struct {
	Auth  *AuthService
	Leave *LeaveService
}

// MenuFor lists the entries acc may open. Admin-only entries are hidden
// from everyone else.
func MenuFor(acc *domain.Account) []MenuEntry {
	out := make([]MenuEntry, 0, len(menu))
	for _, m := range menu {
		if m.Admin && (acc == nil || !acc.IsAdmin()) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Get builds the dashboard of accountID: its menu, how many leave
// decisions it has not seen yet and, for admins, how many requests await a
// decision.
func (s *DashboardService) Get(ctx context.Context, accountID string) (*Dashboard, error) {
	acc, err := s.Auth.Account(ctx, accountID)
	if err != nil {
		return nil, err
	}
	d := &Dashboard{Account: acc, Menu: MenuFor(acc)}

	mine, err := s.Leave.Mine(ctx, accountID)
	if err != nil {
		return nil, err
	}
	for _, l := range mine {
		if !l.SeenByRequester && l.Status != domain.LeavePending {
			d.UnseenDecision++
		}
	}
	if acc.IsAdmin() {
		_, pending, err := s.Leave.AdminList(ctx)
		if err != nil {
			return nil, err
		}
		d.PendingLeave = pending
	}
	return d, nil
}
