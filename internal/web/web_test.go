package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"gridcal/internal/config"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.SourceURL = "https://timetable.example.ac.uk/cs2.html"
	cfg.PeriodStart = "2012-02-06"
	return cfg
}

func TestFeedServedFromCache(t *testing.T) {
	calls := 0
	s := NewServer(testConfig(), func(ctx context.Context) ([]byte, error) {
		calls++
		return []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"), nil
	})

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	for i := 0; i < 3; i++ {
		resp, err := http.Get(srv.URL + "/timetable.ics")
		if err != nil {
			t.Fatalf("GET /timetable.ics: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET /timetable.ics status = %d", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "text/calendar; charset=utf-8" {
			t.Errorf("Content-Type = %q", ct)
		}
	}

	if calls != 1 {
		t.Errorf("generate ran %d times across 3 requests, want 1 (cached)", calls)
	}
}

func TestFeedGenerationFailure(t *testing.T) {
	s := NewServer(testConfig(), func(ctx context.Context) ([]byte, error) {
		return nil, errors.New("source unreachable")
	})

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/timetable.ics")
	if err != nil {
		t.Fatalf("GET /timetable.ics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
}

func TestRefreshKeepsLastGoodDocument(t *testing.T) {
	healthy := true
	s := NewServer(testConfig(), func(ctx context.Context) ([]byte, error) {
		if !healthy {
			return nil, errors.New("source unreachable")
		}
		return []byte("GOOD"), nil
	})

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() returned error: %v", err)
	}

	healthy = false
	if err := s.Refresh(context.Background()); err == nil {
		t.Error("Refresh() succeeded with a failing generator")
	}

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/timetable.ics")
	if err != nil {
		t.Fatalf("GET /timetable.ics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 from last good document", resp.StatusCode)
	}
}

func TestBasicAuth(t *testing.T) {
	cfg := testConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "user", Password: "pass"}

	s := NewServer(cfg, func(ctx context.Context) ([]byte, error) {
		return []byte("X"), nil
	})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	// Unauthenticated feed access is rejected.
	resp, err := http.Get(srv.URL + "/timetable.ics")
	if err != nil {
		t.Fatalf("GET /timetable.ics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", resp.StatusCode)
	}

	// /health stays open.
	resp, err = http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/health status = %d, want 200", resp.StatusCode)
	}

	// Correct credentials pass.
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/timetable.ics", nil)
	req.SetBasicAuth("user", "pass")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("authenticated GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", resp.StatusCode)
	}
}
