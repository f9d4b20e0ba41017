package zoom

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestSendToMeetingUsesAccountCredentials(t *testing.T) {
	var tokenCalls atomic.Int32
	var got chatbotMessage
	var authHeader string

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if gt := r.PostForm.Get("grant_type"); gt != "account_credentials" {
			t.Errorf("expected account_credentials grant, got %q", gt)
		}
		if acct := r.PostForm.Get("account_id"); acct != "acct-1" {
			t.Errorf("expected account id, got %q", acct)
		}
		if user, pass, ok := r.BasicAuth(); !ok || user != "client" || pass != "secret" {
			t.Errorf("expected basic auth with client credentials")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-123","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/v2/im/chat/messages", func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(context.Background(), Config{
		AccountID:    "acct-1",
		ClientID:     "client",
		ClientSecret: "secret",
		BotJID:       "bot@xmpp.zoom.us",
		APIBaseURL:   srv.URL + "/v2",
		TokenURL:     srv.URL + "/oauth/token",
	})

	for i := 0; i < 2; i++ {
		if err := client.SendToMeeting(context.Background(), "m-42", "New question: 2+2?\nAnswer here: http://x/q/t"); err != nil {
			t.Fatalf("send to meeting: %v", err)
		}
	}

	if authHeader != "Bearer tok-123" {
		t.Fatalf("expected bearer token, got %q", authHeader)
	}
	if tokenCalls.Load() != 1 {
		t.Fatalf("expected cached token, got %d token calls", tokenCalls.Load())
	}
	if got.ToJID != "m-42@conference.zoom.us" || got.RobotJID != "bot@xmpp.zoom.us" || got.AccountID != "acct-1" {
		t.Fatalf("unexpected message envelope %+v", got)
	}
	if got.Content.Head.Text != "New question: 2+2?" || got.Content.Body[0].Text != "Answer here: http://x/q/t" {
		t.Fatalf("unexpected content %+v", got.Content)
	}
}

func TestSendToUserReportsFailures(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/v2/chat/users/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v2/chat/users/good/messages" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Error(w, `{"message":"user not found"}`, http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(context.Background(), Config{
		AccountID: "a", ClientID: "c", ClientSecret: "s",
		APIBaseURL: srv.URL + "/v2", TokenURL: srv.URL + "/oauth/token",
	})

	if err := client.SendToUser(context.Background(), "good", "hello"); err != nil {
		t.Fatalf("send to user: %v", err)
	}
	if err := client.SendToUser(context.Background(), "missing", "hello"); err == nil {
		t.Fatalf("expected error for non-2xx response")
	}
}

func TestUnconfiguredClient(t *testing.T) {
	client := NewClient(context.Background(), Config{})
	if client.Configured() {
		t.Fatalf("expected unconfigured client")
	}
	if err := client.SendToMeeting(context.Background(), "m", "x"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if err := client.SendToUser(context.Background(), "u", "x"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
