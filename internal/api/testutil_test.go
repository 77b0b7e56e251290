package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	slackapi "github.com/slack-go/slack"

	"github.com/syllabus-hq/syllabot/internal/auth"
	"github.com/syllabus-hq/syllabot/internal/flow"
	"github.com/syllabus-hq/syllabot/internal/journal"
	"github.com/syllabus-hq/syllabot/internal/relay"
	"github.com/syllabus-hq/syllabot/internal/session"
)

const testSigningSecret = "test-signing-secret"

type postedMessage struct {
	ChannelID string
	UserID    string
	Text      string
	Blocks    []slackapi.Block
}

type fakeMessenger struct {
	mu sync.Mutex

	openedViews  []slackapi.ModalViewRequest
	openTriggers []string
	openErr      error

	updatedViews   []slackapi.ModalViewRequest
	updatedViewIDs []string

	messages   []postedMessage
	ephemerals []postedMessage

	dmChannel string
	dmUsers   []string
	dmErr     error
}

func (m *fakeMessenger) OpenView(ctx context.Context, triggerID string, view slackapi.ModalViewRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openErr != nil {
		return m.openErr
	}
	m.openedViews = append(m.openedViews, view)
	m.openTriggers = append(m.openTriggers, triggerID)
	return nil
}

func (m *fakeMessenger) UpdateView(ctx context.Context, viewID string, view slackapi.ModalViewRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updatedViews = append(m.updatedViews, view)
	m.updatedViewIDs = append(m.updatedViewIDs, viewID)
	return nil
}

func (m *fakeMessenger) PostMessage(ctx context.Context, channelID, text string, blocks []slackapi.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, postedMessage{ChannelID: channelID, Text: text, Blocks: blocks})
	return nil
}

func (m *fakeMessenger) PostEphemeral(ctx context.Context, channelID, userID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ephemerals = append(m.ephemerals, postedMessage{ChannelID: channelID, UserID: userID, Text: text})
	return nil
}

func (m *fakeMessenger) OpenDM(ctx context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dmErr != nil {
		return "", m.dmErr
	}
	m.dmUsers = append(m.dmUsers, userID)
	return m.dmChannel, nil
}

type fakeDirectory struct {
	pipelines map[flow.RecordType][]flow.Option
	stages    map[string][]flow.Option
	records   []flow.Option
	groups    []flow.Option
	err       error
}

func (d *fakeDirectory) Pipelines(ctx context.Context, rt flow.RecordType) ([]flow.Option, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.pipelines[rt], nil
}

func (d *fakeDirectory) Stages(ctx context.Context, rt flow.RecordType, pipelineID string) ([]flow.Option, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.stages[pipelineID], nil
}

func (d *fakeDirectory) SearchRecords(ctx context.Context, rt flow.RecordType, pipelineID, stageID, query string) ([]flow.Option, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.records, nil
}

func (d *fakeDirectory) TaskGroups(ctx context.Context, search string) ([]flow.Option, error) {
	if d.err != nil {
		return nil, d.err
	}
	return flow.Filter(d.groups, search), nil
}

// newTestHandler builds a handler with fakes wired in and post-ack work
// running inline so tests observe it synchronously.
func newTestHandler() (*Handler, *fakeMessenger, *fakeDirectory) {
	msgr := &fakeMessenger{dmChannel: "D1"}
	dir := &fakeDirectory{
		pipelines: map[flow.RecordType][]flow.Option{
			flow.RecordTicket: {{Label: "Support", Value: "p1"}, {Label: "Success", Value: "p2"}},
		},
		stages: map[string][]flow.Option{
			"p1": {{Label: "Triage", Value: "s1"}, {Label: "Waiting", Value: "s2"}},
		},
		records: []flow.Option{{Label: "Login broken", Value: "101"}},
		groups:  []flow.Option{{Label: "This week", Value: "g1"}, {Label: "Backlog", Value: "g2"}},
	}
	h := &Handler{
		SigningSecret: testSigningSecret,
		Auth:          &auth.SharedSecret{Secret: "zap-secret"},
		Messenger:     msgr,
		Source:        dir,
		Sessions:      session.NewStore(time.Minute, nil),
		Relay:         &relay.Client{},
		Callbacks:     NewInMemoryCallbackStore(),
		Journal:       journal.New(nil),
		MondayBoardID: "b42",
		MondayGroupID: "g1",
		Async:         func(fn func()) { fn() },
	}
	return h, msgr, dir
}

// signedRequest builds a form-encoded request carrying a valid Slack
// signature over body.
func signedRequest(t *testing.T, target string, body []byte) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(testSigningSecret))
	_, _ = mac.Write([]byte("v0:" + timestamp + ":" + string(body)))
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
	req.Header.Set("X-Slack-Request-Timestamp", timestamp)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// interactionBody wraps a raw interaction payload the way Slack delivers it.
func interactionBody(payload string) []byte {
	form := url.Values{}
	form.Set("payload", payload)
	return []byte(form.Encode())
}

func serve(h *Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	NewRouter(h).ServeHTTP(rec, req)
	return rec
}

// rawBlockJSON renders a view request to JSON so tests can assert on nested
// block content without walking the block types.
func rawBlockJSON(t *testing.T, view slackapi.ModalViewRequest) string {
	t.Helper()

	raw, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("marshal view: %v", err)
	}
	return string(raw)
}
