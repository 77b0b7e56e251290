package slack

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	slackapi "github.com/slack-go/slack"
)

func newTestMessenger(t *testing.T, handler http.HandlerFunc) *WebMessenger {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewWebMessenger("xoxb-test", slackapi.OptionAPIURL(srv.URL+"/"))
}

func TestPostMessage(t *testing.T) {
	var gotPath string
	m := newTestMessenger(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"channel":"C1","ts":"1"}`))
	})

	if err := m.PostMessage(context.Background(), "C1", "hello", nil); err != nil {
		t.Fatalf("post message: %v", err)
	}
	if gotPath != "/chat.postMessage" {
		t.Fatalf("path: %s", gotPath)
	}
}

func TestOpenDM(t *testing.T) {
	m := newTestMessenger(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/conversations.open" {
			t.Errorf("path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"channel":{"id":"D9"}}`))
	})

	channel, err := m.OpenDM(context.Background(), "U1")
	if err != nil {
		t.Fatalf("open dm: %v", err)
	}
	if channel != "D9" {
		t.Fatalf("channel: %s", channel)
	}
}

func TestOpenViewAPIError(t *testing.T) {
	m := newTestMessenger(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":false,"error":"invalid_trigger_id"}`))
	})

	err := m.OpenView(context.Background(), "trig-1", slackapi.ModalViewRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "views.open") {
		t.Fatalf("error: %v", err)
	}
}
