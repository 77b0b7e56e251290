package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/syllabus-hq/syllabot/internal/relay"
)

func zapierRequest(t *testing.T, secret string, cb relay.Callback) *http.Request {
	t.Helper()

	body, err := json.Marshal(cb)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/hooks/zapier", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(relay.SecretHeader, secret)
	}
	return req
}

func noteCallback() relay.Callback {
	return relay.Callback{
		CorrelationID:   "corr-1",
		EntityID:        "note-77",
		EntityKind:      "note",
		Title:           "Escalation recap",
		OriginChannelID: "C1",
		OriginUserID:    "U1",
	}
}

func TestZapierHookCreatesSessionAndPrompts(t *testing.T) {
	h, msgr, _ := newTestHandler()

	rec := serve(h, zapierRequest(t, "zap-secret", noteCallback()))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "accepted") {
		t.Fatalf("body: %s", rec.Body.String())
	}

	if h.Sessions.Len() != 1 {
		t.Fatalf("sessions: %d", h.Sessions.Len())
	}
	if len(msgr.dmUsers) != 1 || msgr.dmUsers[0] != "U1" {
		t.Fatalf("dm users: %v", msgr.dmUsers)
	}
	if len(msgr.messages) != 1 {
		t.Fatalf("messages: %d", len(msgr.messages))
	}
	msg := msgr.messages[0]
	if msg.ChannelID != "D1" {
		t.Fatalf("channel: %s", msg.ChannelID)
	}
	if len(msg.Blocks) != 2 {
		t.Fatalf("prompt blocks: %d", len(msg.Blocks))
	}

	rec2, ok := h.Callbacks.Get("corr-1")
	if !ok || rec2.SessionID == "" {
		t.Fatalf("callback record: %+v ok=%v", rec2, ok)
	}
	if got := h.Journal.Current("corr-1"); got != relay.StatusAwaitingAttach {
		t.Fatalf("journal status: %s", got)
	}
}

func TestZapierHookDeduplicatesRedelivery(t *testing.T) {
	h, msgr, _ := newTestHandler()

	serve(h, zapierRequest(t, "zap-secret", noteCallback()))
	serve(h, zapierRequest(t, "zap-secret", noteCallback()))

	if h.Sessions.Len() != 1 {
		t.Fatalf("sessions after redelivery: %d", h.Sessions.Len())
	}
	if len(msgr.messages) != 1 {
		t.Fatalf("messages after redelivery: %d", len(msgr.messages))
	}
}

func TestZapierHookRejectsBadSecret(t *testing.T) {
	h, _, _ := newTestHandler()

	rec := serve(h, zapierRequest(t, "wrong", noteCallback()))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: %d", rec.Code)
	}
	if h.Sessions.Len() != 0 {
		t.Fatal("no session should be created")
	}
}

func TestZapierHookValidatesPayload(t *testing.T) {
	h, _, _ := newTestHandler()

	rec := serve(h, zapierRequest(t, "zap-secret", relay.Callback{EntityID: "note-77"}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/hooks/zapier", strings.NewReader("{not json"))
	req.Header.Set(relay.SecretHeader, "zap-secret")
	rec = serve(h, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", rec.Code)
	}
}

func TestZapierHookMethodNotAllowed(t *testing.T) {
	h, _, _ := newTestHandler()

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/hooks/zapier", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status: %d", rec.Code)
	}
}

func TestZapierHookDMFallsBackToOriginChannel(t *testing.T) {
	h, msgr, _ := newTestHandler()
	msgr.dmErr = errors.New("cannot dm user")

	serve(h, zapierRequest(t, "zap-secret", noteCallback()))

	if len(msgr.messages) != 1 || msgr.messages[0].ChannelID != "C1" {
		t.Fatalf("messages: %+v", msgr.messages)
	}
}

func TestZapierHookMissingOriginSkipsPrompt(t *testing.T) {
	h, msgr, _ := newTestHandler()
	cb := noteCallback()
	cb.OriginChannelID = ""
	cb.OriginUserID = ""

	rec := serve(h, zapierRequest(t, "zap-secret", cb))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	// The session still exists so a later decision could be wired up, but no
	// prompt can be delivered.
	if h.Sessions.Len() != 1 {
		t.Fatalf("sessions: %d", h.Sessions.Len())
	}
	if len(msgr.messages) != 0 {
		t.Fatalf("messages: %+v", msgr.messages)
	}
}

func TestHealthz(t *testing.T) {
	h, _, _ := newTestHandler()

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["status"] != "ok" {
		t.Fatalf("body: %v", out)
	}
	if _, ok := out["sessions"]; !ok {
		t.Fatalf("body: %v", out)
	}
}
