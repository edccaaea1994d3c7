package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SWORDIntel/ARTIFACTOR-sub003/models"
)

func TestSyncSendsBearerAndBody(t *testing.T) {
	var gotAuth string
	var gotBody SyncPayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/artifacts/sync" {
			t.Errorf("path = %s, want /api/artifacts/sync", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-123", 2*time.Second)
	payload := SyncPayload{
		URL:            "https://chat.example.com/c/abc",
		ConversationID: "abc",
		Artifacts:      []models.Artifact{{ID: "a1", Kind: models.KindPython}},
		Settings:       models.DefaultSettings(),
	}

	if err := c.Sync(context.Background(), payload); err != nil {
		t.Fatalf("Sync() failed: %v", err)
	}

	if gotAuth != "Bearer key-123" {
		t.Errorf("Authorization = %q, want bearer key", gotAuth)
	}
	if gotBody.ConversationID != "abc" || len(gotBody.Artifacts) != 1 {
		t.Errorf("body = %+v, want the submitted payload", gotBody)
	}
}

func TestNoAuthHeaderWithoutKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Authorization"]; ok {
			t.Error("Authorization header sent without a configured key")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 2*time.Second)
	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health() failed: %v", err)
	}
}

func TestNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 2*time.Second)

	if err := c.Sync(context.Background(), SyncPayload{}); err == nil {
		t.Error("Sync() returned nil error for 502")
	}
	if err := c.Process(context.Background(), SyncPayload{}); err == nil {
		t.Error("Process() returned nil error for 502")
	}
	if err := c.Health(context.Background()); err == nil {
		t.Error("Health() returned nil error for 502")
	}
}

func TestHealthUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "", 500*time.Millisecond)
	if err := c.Health(context.Background()); err == nil {
		t.Error("Health() returned nil error for unreachable backend")
	}
}
