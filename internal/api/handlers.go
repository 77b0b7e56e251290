// Package api routes inbound Slack interactions and automation callbacks.
// Every Slack-facing handler acknowledges inside the transport's ~3 s
// deadline; slow work (external API calls) runs after the acknowledgment
// and reports failures through a best-effort follow-up message.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/slack-go/slack"

	"github.com/syllabus-hq/syllabot/internal/auth"
	"github.com/syllabus-hq/syllabot/internal/flow"
	"github.com/syllabus-hq/syllabot/internal/hubspot"
	"github.com/syllabus-hq/syllabot/internal/journal"
	"github.com/syllabus-hq/syllabot/internal/modal"
	"github.com/syllabus-hq/syllabot/internal/monday"
	"github.com/syllabus-hq/syllabot/internal/relay"
	"github.com/syllabus-hq/syllabot/internal/session"
	gateway "github.com/syllabus-hq/syllabot/internal/slack"
)

// Directory is the option source handlers serve dropdown queries from.
type Directory interface {
	flow.OptionSource
	TaskGroups(ctx context.Context, search string) ([]flow.Option, error)
}

// NoteWriter is the slice of the HubSpot client the direct-create fallback
// and the attach flow use.
type NoteWriter interface {
	CreateNote(ctx context.Context, input hubspot.NoteInput) (string, error)
	AttachFiles(ctx context.Context, noteID string, fileIDs []string) error
}

// ItemWriter is the slice of the Monday client the direct-create fallback
// uses.
type ItemWriter interface {
	CreateItem(ctx context.Context, input monday.ItemInput) (string, error)
}

type Handler struct {
	SigningSecret string
	Auth          *auth.SharedSecret

	Messenger gateway.Messenger
	Source    Directory
	Sessions  *session.Store
	Relay     *relay.Client
	Notes     NoteWriter
	Items     ItemWriter
	Callbacks *InMemoryCallbackStore
	Journal   *journal.Journal

	MondayBoardID string
	MondayGroupID string

	Logger *slog.Logger
	Now    func() time.Time

	// Async runs post-acknowledgment work. Defaults to a goroutine; tests
	// replace it to run inline.
	Async func(fn func())
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) log() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// record appends one status observation to the workflow journal.
func (h *Handler) record(correlationID string, status relay.Status, note string) {
	if h.Journal != nil {
		h.Journal.Record(correlationID, status, note)
	}
}

func (h *Handler) async(fn func()) {
	if h.Async != nil {
		h.Async(fn)
		return
	}
	go fn()
}

// background returns the context slow work runs under once the inbound
// request has been acknowledged and its own context canceled.
func (h *Handler) background() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// readVerified reads the request body and checks the Slack signature.
// Returns the raw body and whether processing should continue.
func (h *Handler) readVerified(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return nil, false
	}
	if h.SigningSecret != "" {
		sig := r.Header.Get("X-Slack-Signature")
		timestamp := r.Header.Get("X-Slack-Request-Timestamp")
		if err := gateway.VerifySignature(h.SigningSecret, sig, timestamp, body, h.now()); err != nil {
			h.log().Warn("slack_signature_rejected", "error", err.Error())
			w.WriteHeader(http.StatusUnauthorized)
			return nil, false
		}
	}
	return body, true
}

// parseInteraction extracts the interaction payload from a form-encoded
// Slack callback body.
func parseInteraction(body []byte) (slack.InteractionCallback, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return slack.InteractionCallback{}, err
	}
	var cb slack.InteractionCallback
	if err := json.Unmarshal([]byte(values.Get("payload")), &cb); err != nil {
		return slack.InteractionCallback{}, err
	}
	return cb, nil
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":   "ok",
		"sessions": h.Sessions.Len(),
	}
	if h.Journal != nil {
		body["workflows"] = h.Journal.Len()
	}
	writeJSON(w, http.StatusOK, body)
}

// ZapierHook receives the asynchronous "entity created" callback from the
// automation relay and resumes the workflow it belongs to.
func (h *Handler) ZapierHook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := h.Auth.Authenticate(r); err != nil {
		h.log().Warn("callback_rejected", "error", err.Error())
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var cb relay.Callback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}
	if cb.CorrelationID == "" || cb.EntityID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "correlation_id and entity_id are required"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
	h.async(func() {
		ctx, cancel := h.background()
		defer cancel()
		h.entityCreated(ctx, cb)
	})
}

// entityCreated creates the session bridging "entity exists" to the attach
// decision and prompts the originating user over DM. Redelivered callbacks
// for a correlation id that already has a session are ignored.
func (h *Handler) entityCreated(ctx context.Context, cb relay.Callback) {
	if h.Callbacks != nil {
		if _, seen := h.Callbacks.Get(cb.CorrelationID); seen {
			h.log().Info("callback_deduped", "correlation_id", cb.CorrelationID)
			return
		}
	}

	sess := h.Sessions.Create(session.Session{
		CorrelationID:   cb.CorrelationID,
		EntityID:        cb.EntityID,
		EntityKind:      cb.EntityKind,
		OriginChannelID: cb.OriginChannelID,
		OriginUserID:    cb.OriginUserID,
		Status:          relay.StatusAwaitingAttach,
	})
	if h.Callbacks != nil {
		h.Callbacks.Put(CallbackRecord{CorrelationID: cb.CorrelationID, SessionID: sess.ID})
	}
	h.record(cb.CorrelationID, relay.StatusCreated, "entity "+cb.EntityID+" created")
	h.record(cb.CorrelationID, relay.StatusAwaitingAttach, "attach decision pending")
	h.log().Info("entity_created", "correlation_id", cb.CorrelationID, "entity_id", cb.EntityID, "session_id", sess.ID)

	if cb.OriginUserID == "" {
		h.log().Warn("callback_missing_origin", "correlation_id", cb.CorrelationID)
		return
	}

	dm, err := h.Messenger.OpenDM(ctx, cb.OriginUserID)
	if err != nil {
		h.log().Warn("dm_open_failed", "correlation_id", cb.CorrelationID, "error", err.Error())
		// Fall back to the origin channel so the outcome is never silent.
		dm = cb.OriginChannelID
		if dm == "" {
			return
		}
	} else {
		sess.DMChannelID = dm
		h.Sessions.Put(sess)
	}

	blocks := modal.BuildAttachPrompt(sess.ID, cb.Title)
	if err := h.Messenger.PostMessage(ctx, dm, "Your note was created. Attach files to it?", blocks); err != nil {
		h.log().Warn("attach_prompt_failed", "correlation_id", cb.CorrelationID, "error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

// restoreBody puts an already-read body back on the request so form parsers
// can consume it after signature verification.
func restoreBody(r *http.Request, body []byte) {
	r.Body = io.NopCloser(bytes.NewReader(body))
}
