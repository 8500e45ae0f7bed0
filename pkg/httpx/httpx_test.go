package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient() *Client {
	return New(Config{
		Timeout:         time.Second,
		RetryAttempts:   2,
		BreakerFailures: 10,
		BreakerCooldown: time.Second,
		Name:            "test",
	})
}

func TestGetJSONDecodesSuccessfulResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	if err := newTestClient().GetJSON(context.Background(), srv.URL, nil, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.OK {
		t.Fatal("expected ok=true")
	}
}

func TestGetJSONAppliesQueryParams(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("ids")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	var out map[string]interface{}
	err := newTestClient().GetJSON(context.Background(), srv.URL, map[string]string{"ids": "ethereum"}, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery != "ethereum" {
		t.Fatalf("got query %q, want ethereum", gotQuery)
	}
}

func TestGetJSONRetriesThenFailsOnPersistentServerError(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(Config{Timeout: time.Second, RetryAttempts: 3, BreakerFailures: 10, BreakerCooldown: time.Second})
	err := client.GetJSON(context.Background(), srv.URL, nil, nil)
	if err == nil {
		t.Fatal("expected error after persistent server failures")
	}
	if requests != 3 {
		t.Fatalf("got %d requests, want 3 retry attempts", requests)
	}
}

func TestGetJSONSucceedsAfterTransientFailure(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	client := New(Config{Timeout: time.Second, RetryAttempts: 3, BreakerFailures: 10, BreakerCooldown: time.Second})
	var out struct {
		OK bool `json:"ok"`
	}
	if err := client.GetJSON(context.Background(), srv.URL, nil, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.OK {
		t.Fatal("expected ok=true on retry success")
	}
}

func TestPostJSONSendsBodyAndDecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("got content-type %q", r.Header.Get("Content-Type"))
		}
		w.Write([]byte(`{"echo": "hi"}`))
	}))
	defer srv.Close()

	var out struct {
		Echo string `json:"echo"`
	}
	err := newTestClient().PostJSON(context.Background(), srv.URL, map[string]string{"msg": "hi"}, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Echo != "hi" {
		t.Fatalf("got %q, want hi", out.Echo)
	}
}

func TestPostJSONDoesNotRetryOnFailure(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestClient().PostJSON(context.Background(), srv.URL, map[string]string{}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if requests != 1 {
		t.Fatalf("got %d requests, want exactly 1 (no retry)", requests)
	}
}
