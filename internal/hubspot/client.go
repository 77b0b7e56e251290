// Package hubspot is a thin wrapper over the HubSpot CRM REST API: pipeline
// and stage listings, scoped record search, and note creation/attachment.
package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/syllabus-hq/syllabot/internal/flow"
)

const DefaultBaseURL = "https://api.hubapi.com"

// HubSpot-defined association type ids for note engagements.
const (
	assocNoteToTicket = 228
	assocNoteToDeal   = 214
)

type Stage struct {
	ID    string
	Label string
}

type Pipeline struct {
	ID     string
	Label  string
	Stages []Stage
}

type NoteInput struct {
	Body       string
	RecordType flow.RecordType
	RecordID   string
}

type Client struct {
	Token   string
	BaseURL string
	HTTP    *http.Client
	Now     func() time.Time
}

func objectType(rt flow.RecordType) (string, error) {
	switch rt {
	case flow.RecordTicket:
		return "tickets", nil
	case flow.RecordDeal:
		return "deals", nil
	}
	return "", fmt.Errorf("unsupported record type %q", rt)
}

// ListPipelines fetches the configured pipelines with their nested stages,
// in the API's natural order.
func (c *Client) ListPipelines(ctx context.Context, rt flow.RecordType) ([]Pipeline, error) {
	object, err := objectType(rt)
	if err != nil {
		return nil, err
	}

	var out struct {
		Results []struct {
			ID     string `json:"id"`
			Label  string `json:"label"`
			Stages []struct {
				ID    string `json:"id"`
				Label string `json:"label"`
			} `json:"stages"`
		} `json:"results"`
	}
	if err := c.do(ctx, http.MethodGet, "/crm/v3/pipelines/"+object, nil, &out); err != nil {
		return nil, err
	}

	pipelines := make([]Pipeline, 0, len(out.Results))
	for _, p := range out.Results {
		stages := make([]Stage, 0, len(p.Stages))
		for _, st := range p.Stages {
			stages = append(stages, Stage{ID: st.ID, Label: st.Label})
		}
		pipelines = append(pipelines, Pipeline{ID: p.ID, Label: p.Label, Stages: stages})
	}
	return pipelines, nil
}

// SearchRecords runs a live CRM search scoped to (pipeline, stage) with a
// free-text query, returning label/id options in API order.
func (c *Client) SearchRecords(ctx context.Context, rt flow.RecordType, pipelineID, stageID, query string, limit int) ([]flow.Option, error) {
	object, err := objectType(rt)
	if err != nil {
		return nil, err
	}
	pipelineProp, stageProp, labelProp := searchProperties(rt)

	if limit <= 0 || limit > flow.MaxOptions {
		limit = flow.MaxOptions
	}
	body := map[string]any{
		"query": strings.TrimSpace(query),
		"limit": limit,
		"filterGroups": []map[string]any{
			{
				"filters": []map[string]any{
					{"propertyName": pipelineProp, "operator": "EQ", "value": pipelineID},
					{"propertyName": stageProp, "operator": "EQ", "value": stageID},
				},
			},
		},
		"properties": []string{labelProp},
	}

	var out struct {
		Results []struct {
			ID         string            `json:"id"`
			Properties map[string]string `json:"properties"`
		} `json:"results"`
	}
	if err := c.do(ctx, http.MethodPost, "/crm/v3/objects/"+object+"/search", body, &out); err != nil {
		return nil, err
	}

	opts := make([]flow.Option, 0, len(out.Results))
	for _, rec := range out.Results {
		label := rec.Properties[labelProp]
		if label == "" {
			label = rec.ID
		}
		opts = append(opts, flow.Option{Label: label, Value: rec.ID})
	}
	return opts, nil
}

func searchProperties(rt flow.RecordType) (pipelineProp, stageProp, labelProp string) {
	if rt == flow.RecordDeal {
		return "pipeline", "dealstage", "dealname"
	}
	return "hs_pipeline", "hs_pipeline_stage", "subject"
}

// CreateNote creates a note engagement associated to the target record and
// returns the new note id.
func (c *Client) CreateNote(ctx context.Context, input NoteInput) (string, error) {
	if _, err := objectType(input.RecordType); err != nil {
		return "", err
	}
	if input.RecordID == "" {
		return "", fmt.Errorf("missing record id")
	}

	assocType := assocNoteToTicket
	if input.RecordType == flow.RecordDeal {
		assocType = assocNoteToDeal
	}
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	body := map[string]any{
		"properties": map[string]any{
			"hs_note_body": input.Body,
			"hs_timestamp": now().UTC().Format(time.RFC3339),
		},
		"associations": []map[string]any{
			{
				"to": map[string]any{"id": input.RecordID},
				"types": []map[string]any{
					{"associationCategory": "HUBSPOT_DEFINED", "associationTypeId": assocType},
				},
			},
		},
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/crm/v3/objects/notes", body, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("hubspot returned empty note id")
	}
	return out.ID, nil
}

// AttachFiles links uploaded file ids to an existing note.
func (c *Client) AttachFiles(ctx context.Context, noteID string, fileIDs []string) error {
	if noteID == "" {
		return fmt.Errorf("missing note id")
	}
	if len(fileIDs) == 0 {
		return nil
	}
	body := map[string]any{
		"properties": map[string]any{
			"hs_attachment_ids": strings.Join(fileIDs, ";"),
		},
	}
	return c.do(ctx, http.MethodPatch, "/crm/v3/objects/notes/"+noteID, body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	if c.Token == "" {
		return fmt.Errorf("missing hubspot token (set SYLLABOT_HUBSPOT_TOKEN)")
	}
	if c.HTTP == nil {
		c.HTTP = &http.Client{Timeout: 10 * time.Second}
	}
	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	var reader *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("hubspot %s %s returned status %d", method, path, res.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
