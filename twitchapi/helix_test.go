package twitchapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/onnwee/chat-tender/backend/testutil"
	"github.com/onnwee/chat-tender/backend/twitchapi"
)

func newTestClient(t *testing.T) (*twitchapi.HelixClient, *testutil.MockTwitchServer) {
	t.Helper()
	mock := testutil.NewMockTwitchServer(t)
	mock.MockOAuthTokenResponse("app-token", 3600)
	ts, err := twitchapi.NewTokenSource(context.Background(), "cid", "secret", mock.URL+"/oauth2/token", http.DefaultClient)
	if err != nil {
		t.Fatalf("token source: %v", err)
	}
	return &twitchapi.HelixClient{
		TokenSource: ts,
		ClientID:    "cid",
		BaseURL:     mock.URL,
	}, mock
}

func TestGetUserID(t *testing.T) {
	hc, mock := newTestClient(t)
	mock.MockUserResponse("12345", "somechannel")

	id, err := hc.GetUserID(context.Background(), "somechannel")
	if err != nil {
		t.Fatalf("get user id: %v", err)
	}
	if id != "12345" {
		t.Errorf("id = %q, want 12345", id)
	}
}

func TestGetUserIDNotFound(t *testing.T) {
	hc, mock := newTestClient(t)
	mock.Handlers["/helix/users"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}
	if _, err := hc.GetUserID(context.Background(), "ghost"); err == nil {
		t.Fatal("expected error for unknown login")
	}
}

func TestGetUserIDEmptyLogin(t *testing.T) {
	hc, _ := newTestClient(t)
	if _, err := hc.GetUserID(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty login")
	}
}

func TestGetStream(t *testing.T) {
	hc, mock := newTestClient(t)
	mock.MockStreamsResponse([]map[string]interface{}{
		{"id": "s1", "title": "playing games", "viewer_count": 42, "started_at": "2024-05-01T20:00:00Z"},
	})

	s, err := hc.GetStream(context.Background(), "12345")
	if err != nil {
		t.Fatalf("get stream: %v", err)
	}
	if s == nil || s.Title != "playing games" || s.ViewerCount != 42 {
		t.Errorf("stream = %+v", s)
	}
}

func TestGetStreamOffline(t *testing.T) {
	hc, mock := newTestClient(t)
	mock.MockStreamsResponse(nil)

	s, err := hc.GetStream(context.Background(), "12345")
	if err != nil {
		t.Fatalf("get stream: %v", err)
	}
	if s != nil {
		t.Errorf("expected nil for offline channel, got %+v", s)
	}
}

func TestTokenSourceRequiresCredentials(t *testing.T) {
	if _, err := twitchapi.NewTokenSource(context.Background(), "", "", "", nil); err == nil {
		t.Fatal("expected error for missing credentials")
	}
}
