package hubspot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syllabus-hq/syllabot/internal/flow"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Client{Token: "test-token", BaseURL: srv.URL}
}

func TestListPipelines(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/crm/v3/pipelines/tickets", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"results":[
			{"id":"p1","label":"Support","stages":[{"id":"s1","label":"Triage"},{"id":"s2","label":"Waiting"}]},
			{"id":"p2","label":"Success","stages":[]}
		]}`))
	})

	pipelines, err := c.ListPipelines(context.Background(), flow.RecordTicket)
	require.NoError(t, err)
	require.Len(t, pipelines, 2)
	assert.Equal(t, Pipeline{ID: "p1", Label: "Support", Stages: []Stage{{ID: "s1", Label: "Triage"}, {ID: "s2", Label: "Waiting"}}}, pipelines[0])
	assert.Equal(t, "p2", pipelines[1].ID)
	assert.Empty(t, pipelines[1].Stages)
}

func TestListPipelinesUnsupportedType(t *testing.T) {
	c := &Client{Token: "test-token"}
	_, err := c.ListPipelines(context.Background(), flow.RecordType("contact"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contact")
}

func TestSearchRecordsTicketFilters(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/crm/v3/objects/tickets/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"results":[
			{"id":"101","properties":{"subject":"Login broken"}},
			{"id":"102","properties":{}}
		]}`))
	})

	opts, err := c.SearchRecords(context.Background(), flow.RecordTicket, "p1", "s1", "  login ", 10)
	require.NoError(t, err)
	require.Len(t, opts, 2)
	assert.Equal(t, flow.Option{Label: "Login broken", Value: "101"}, opts[0])
	// Records missing the label property fall back to the id.
	assert.Equal(t, flow.Option{Label: "102", Value: "102"}, opts[1])

	assert.Equal(t, "login", got["query"])
	assert.EqualValues(t, 10, got["limit"])
	groups := got["filterGroups"].([]any)
	require.Len(t, groups, 1)
	filters := groups[0].(map[string]any)["filters"].([]any)
	require.Len(t, filters, 2)
	first := filters[0].(map[string]any)
	assert.Equal(t, "hs_pipeline", first["propertyName"])
	assert.Equal(t, "p1", first["value"])
	second := filters[1].(map[string]any)
	assert.Equal(t, "hs_pipeline_stage", second["propertyName"])
	assert.Equal(t, "s1", second["value"])
}

func TestSearchRecordsDealProperties(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/crm/v3/objects/deals/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"results":[{"id":"201","properties":{"dealname":"Acme renewal"}}]}`))
	})

	opts, err := c.SearchRecords(context.Background(), flow.RecordDeal, "p9", "s9", "acme", 0)
	require.NoError(t, err)
	require.Len(t, opts, 1)
	assert.Equal(t, "Acme renewal", opts[0].Label)

	// limit <= 0 is clamped to the widget maximum.
	assert.EqualValues(t, flow.MaxOptions, got["limit"])
	filters := got["filterGroups"].([]any)[0].(map[string]any)["filters"].([]any)
	assert.Equal(t, "pipeline", filters[0].(map[string]any)["propertyName"])
	assert.Equal(t, "dealstage", filters[1].(map[string]any)["propertyName"])
}

func TestCreateNote(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/crm/v3/objects/notes", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"note-77"}`))
	})
	c.Now = func() time.Time { return fixed }

	id, err := c.CreateNote(context.Background(), NoteInput{
		Body:       "Customer called back.",
		RecordType: flow.RecordDeal,
		RecordID:   "201",
	})
	require.NoError(t, err)
	assert.Equal(t, "note-77", id)

	props := got["properties"].(map[string]any)
	assert.Equal(t, "Customer called back.", props["hs_note_body"])
	assert.Equal(t, "2026-03-01T09:30:00Z", props["hs_timestamp"])
	assocs := got["associations"].([]any)
	require.Len(t, assocs, 1)
	assoc := assocs[0].(map[string]any)
	assert.Equal(t, "201", assoc["to"].(map[string]any)["id"])
	types := assoc["types"].([]any)
	assert.EqualValues(t, assocNoteToDeal, types[0].(map[string]any)["associationTypeId"])
}

func TestCreateNoteValidation(t *testing.T) {
	c := &Client{Token: "test-token"}

	_, err := c.CreateNote(context.Background(), NoteInput{RecordType: flow.RecordTicket})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record id")

	_, err = c.CreateNote(context.Background(), NoteInput{RecordType: flow.RecordType("company"), RecordID: "1"})
	require.Error(t, err)
}

func TestAttachFiles(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/crm/v3/objects/notes/note-77", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"note-77"}`))
	})

	require.NoError(t, c.AttachFiles(context.Background(), "note-77", []string{"f1", "f2"}))
	props := got["properties"].(map[string]any)
	assert.Equal(t, "f1;f2", props["hs_attachment_ids"])
}

func TestAttachFilesNoFilesIsNoop(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	require.NoError(t, c.AttachFiles(context.Background(), "note-77", nil))
	assert.False(t, called)
}

func TestMissingToken(t *testing.T) {
	c := &Client{}
	_, err := c.ListPipelines(context.Background(), flow.RecordTicket)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SYLLABOT_HUBSPOT_TOKEN")
}

func TestNon2xxStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":"error"}`, http.StatusTooManyRequests)
	})
	_, err := c.ListPipelines(context.Background(), flow.RecordTicket)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
