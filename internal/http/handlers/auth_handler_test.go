package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/tbourn/go-intranet-backend/internal/domain"
	"github.com/tbourn/go-intranet-backend/internal/services"
)

func TestLogin_OK_ThenSessionAlreadyActive(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPost, "/auth/login", "", LoginRequest{Email: "bob@ctr.fr", Password: "password123"})
	wantStatus(t, w, http.StatusOK)
	res := decode[services.LoginResult](t, w)
	if res.Token == "" || res.Account == nil || res.Account.Name != "Bob" {
		t.Fatalf("unexpected login result: %+v", res)
	}

	w = e.do(http.MethodPost, "/auth/login", "", LoginRequest{Email: "bob@ctr.fr", Password: "password123"},
		"Authorization", "Bearer "+res.Token)
	wantCode(t, w, http.StatusConflict, ErrCodeSessionActive)
}

func TestLogin_Rejections(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPost, "/auth/login", "", LoginRequest{Email: "bob@ctr.fr", Password: "wrong-password"})
	wantCode(t, w, http.StatusUnauthorized, ErrCodeUnauthorized)

	w = e.do(http.MethodPost, "/auth/login", "", `{"email":"bob@ctr.fr"}`)
	wantCode(t, w, http.StatusBadRequest, ErrCodeBadRequest)

	w = e.do(http.MethodPost, "/auth/login", "", `{not json`)
	wantCode(t, w, http.StatusBadRequest, ErrCodeBadRequest)
}

func TestLogout_EndsSession(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	res, err := e.authSvc.Login(ctx, "bob@ctr.fr", "password123", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := e.authSvc.Authenticate(ctx, res.Token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	w := e.do(http.MethodPost, "/auth/logout", "bob", nil, "X-Test-Session", claims.ID)
	wantStatus(t, w, http.StatusNoContent)

	if _, err := e.authSvc.Authenticate(ctx, res.Token); err == nil {
		t.Fatalf("token must be rejected after logout")
	}
}

func TestMe_AndAccounts(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodGet, "/auth/me", "alice", nil)
	wantStatus(t, w, http.StatusOK)
	me := decode[domain.Account](t, w)
	if me.ID != e.id("alice") || !me.IsAdmin() {
		t.Fatalf("unexpected me: %+v", me)
	}

	// Anonymous callers have no account.
	w = e.do(http.MethodGet, "/auth/me", "", nil)
	wantCode(t, w, http.StatusUnauthorized, ErrCodeUnauthorized)

	w = e.do(http.MethodGet, "/accounts", "bob", nil)
	wantStatus(t, w, http.StatusOK)
	list := decode[[]AccountSummary](t, w)
	if len(list) != 3 {
		t.Fatalf("expected 3 colleagues, got %d", len(list))
	}
	for _, a := range list {
		if a.ID == "" || a.Email == "" {
			t.Fatalf("incomplete summary: %+v", a)
		}
	}
}

func TestCreateAccount_AdminOnly(t *testing.T) {
	e := newTestEnv(t)
	body := CreateAccountRequest{Email: "dan@ctr.fr", Name: "Dan", Password: "long-enough-pw", Labels: []string{" Admin ", ""}}

	w := e.do(http.MethodPost, "/admin/accounts", "bob", body)
	wantCode(t, w, http.StatusForbidden, ErrCodeForbidden)

	w = e.do(http.MethodPost, "/admin/accounts", "alice", body)
	wantStatus(t, w, http.StatusCreated)
	acc := decode[domain.Account](t, w)
	if acc.Email != "dan@ctr.fr" || !acc.IsAdmin() || len(acc.Labels) != 1 {
		t.Fatalf("unexpected account: %+v", acc)
	}

	// Same email again.
	w = e.do(http.MethodPost, "/admin/accounts", "alice", body)
	wantCode(t, w, http.StatusBadRequest, ErrCodeValidation)

	w = e.do(http.MethodPost, "/admin/accounts", "alice", CreateAccountRequest{Email: "eve@ctr.fr", Name: "Eve", Password: "short"})
	wantCode(t, w, http.StatusBadRequest, ErrCodeValidation)
}
