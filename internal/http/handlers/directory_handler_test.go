package handlers

import (
	"net/http"
	"testing"

	"github.com/tbourn/go-intranet-backend/internal/domain"
	"github.com/tbourn/go-intranet-backend/internal/services"
)

func TestTechnicians_CRUD_AndFilter(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPost, "/technicians", "bob", services.TechnicianInput{LastName: "Étienne", FirstName: "Paul"})
	wantStatus(t, w, http.StatusCreated)
	paul := decode[domain.Technician](t, w)

	w = e.do(http.MethodPost, "/technicians", "bob", services.TechnicianInput{LastName: "Dupont", FirstName: "Jean", Phone: "0612345678"})
	wantStatus(t, w, http.StatusCreated)

	w = e.do(http.MethodPost, "/technicians", "bob", services.TechnicianInput{FirstName: "Nobody"})
	wantCode(t, w, http.StatusBadRequest, ErrCodeValidation)

	w = e.do(http.MethodGet, "/technicians", "bob", nil)
	wantStatus(t, w, http.StatusOK)
	all := decode[[]domain.Technician](t, w)
	if len(all) != 2 || all[0].LastName != "Dupont" || all[1].LastName != "Étienne" {
		t.Fatalf("expected Dupont then Étienne, got %+v", all)
	}

	w = e.do(http.MethodGet, "/technicians?q=etien", "bob", nil)
	wantStatus(t, w, http.StatusOK)
	if got := decode[[]domain.Technician](t, w); len(got) != 1 || got[0].ID != paul.ID {
		t.Fatalf("accent-insensitive filter failed: %+v", got)
	}

	w = e.do(http.MethodPut, "/technicians/"+paul.ID, "bob", services.TechnicianInput{LastName: "Martin", FirstName: "Paul"})
	wantStatus(t, w, http.StatusOK)
	if got := decode[domain.Technician](t, w); got.LastName != "Martin" {
		t.Fatalf("update not applied: %+v", got)
	}

	w = e.do(http.MethodGet, "/technicians/"+paul.ID, "bob", nil)
	wantStatus(t, w, http.StatusOK)

	w = e.do(http.MethodDelete, "/technicians/"+paul.ID, "bob", nil)
	wantStatus(t, w, http.StatusNoContent)
	w = e.do(http.MethodDelete, "/technicians/"+paul.ID, "bob", nil)
	wantCode(t, w, http.StatusNotFound, ErrCodeNotFound)
	w = e.do(http.MethodGet, "/technicians/"+paul.ID, "bob", nil)
	wantCode(t, w, http.StatusNotFound, ErrCodeNotFound)
}

func TestTechnicians_ETag(t *testing.T) {
	e := newTestEnv(t)
	e.do(http.MethodPost, "/technicians", "bob", services.TechnicianInput{LastName: "Dupont"})

	w := e.do(http.MethodGet, "/technicians", "bob", nil)
	wantStatus(t, w, http.StatusOK)
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected an ETag")
	}

	w = e.do(http.MethodGet, "/technicians", "bob", nil, "If-None-Match", etag)
	wantStatus(t, w, http.StatusNotModified)

	e.do(http.MethodPost, "/technicians", "bob", services.TechnicianInput{LastName: "Martin"})
	w = e.do(http.MethodGet, "/technicians", "bob", nil, "If-None-Match", etag)
	wantStatus(t, w, http.StatusOK)
	if w.Header().Get("ETag") == etag {
		t.Fatalf("ETag must change after a create")
	}
}

func TestTechnicians_IdempotentCreate(t *testing.T) {
	e := newTestEnv(t)
	in := services.TechnicianInput{LastName: "Dupont"}

	w := e.do(http.MethodPost, "/technicians", "bob", in, "Idempotency-Key", "tech-1")
	wantStatus(t, w, http.StatusCreated)
	first := decode[domain.Technician](t, w)

	w = e.do(http.MethodPost, "/technicians", "bob", in, "Idempotency-Key", "tech-1")
	wantStatus(t, w, http.StatusCreated)
	if w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("expected a replay")
	}
	if again := decode[domain.Technician](t, w); again.ID != first.ID {
		t.Fatalf("replay returned another technician: %s vs %s", again.ID, first.ID)
	}

	// Keys are per user.
	w = e.do(http.MethodPost, "/technicians", "carol", in, "Idempotency-Key", "tech-1")
	wantStatus(t, w, http.StatusCreated)
	if other := decode[domain.Technician](t, w); other.ID == first.ID {
		t.Fatalf("another user's key must not replay")
	}

	w = e.do(http.MethodPost, "/technicians", "bob", in, "Idempotency-Key", "bad key!")
	wantStatus(t, w, http.StatusBadRequest)
}

func TestJobSites_CRUD_Duplicate(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPost, "/job-sites", "bob", services.JobSiteInput{Name: "Gare  du   Nord"})
	wantStatus(t, w, http.StatusCreated)
	site := decode[domain.JobSite](t, w)
	if site.Name != "Gare du Nord" || site.Color != domain.DefaultJobSiteColor {
		t.Fatalf("unexpected site: %+v", site)
	}

	w = e.do(http.MethodPost, "/job-sites", "bob", services.JobSiteInput{Name: "Gare du Nord"})
	wantCode(t, w, http.StatusConflict, ErrCodeConflict)

	w = e.do(http.MethodPost, "/job-sites", "bob", services.JobSiteInput{Name: "Orly", Color: "blue"})
	wantCode(t, w, http.StatusBadRequest, ErrCodeValidation)

	w = e.do(http.MethodPut, "/job-sites/"+site.ID, "bob", services.JobSiteInput{Name: "Austerlitz", Color: "#ff0000"})
	wantStatus(t, w, http.StatusOK)

	w = e.do(http.MethodGet, "/job-sites", "bob", nil)
	wantStatus(t, w, http.StatusOK)
	if got := decode[[]domain.JobSite](t, w); len(got) != 1 || got[0].Color != "#ff0000" {
		t.Fatalf("unexpected list: %+v", got)
	}

	w = e.do(http.MethodDelete, "/job-sites/"+site.ID, "bob", nil)
	wantStatus(t, w, http.StatusNoContent)
	w = e.do(http.MethodPut, "/job-sites/"+site.ID, "bob", services.JobSiteInput{Name: "X"})
	wantCode(t, w, http.StatusNotFound, ErrCodeNotFound)
}
