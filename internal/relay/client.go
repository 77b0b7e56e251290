// Package relay forwards validated submissions to the downstream automation
// webhook and models the workflow states that the asynchronous callback
// resumes.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var ErrNotConfigured = errors.New("relay webhook url is not configured")

// SecretHeader carries the optional shared secret on both the outbound
// posts and the inbound callback.
const SecretHeader = "X-Syllabot-Secret"

// TaskSubmission is the fully-resolved task payload (ids, not labels).
type TaskSubmission struct {
	CorrelationID   string `json:"correlation_id"`
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	DueDate         string `json:"due_date,omitempty"`
	Priority        string `json:"priority,omitempty"`
	BoardID         string `json:"board_id"`
	GroupID         string `json:"group_id,omitempty"`
	OriginChannelID string `json:"origin_channel_id"`
	OriginUserID    string `json:"origin_user_id"`
}

// NoteSubmission is the fully-resolved note payload.
type NoteSubmission struct {
	CorrelationID   string `json:"correlation_id"`
	RecordType      string `json:"record_type"`
	PipelineID      string `json:"pipeline_id"`
	StageID         string `json:"stage_id"`
	RecordID        string `json:"record_id"`
	Title           string `json:"title"`
	Body            string `json:"body"`
	OriginChannelID string `json:"origin_channel_id"`
	OriginUserID    string `json:"origin_user_id"`
}

// Callback is the asynchronous "entity created" notification posted back by
// the automation once the remote entity exists. The origin and title fields
// are echoed from the submission payload so the prompt can be delivered
// without any state surviving a gateway restart in between.
type Callback struct {
	CorrelationID   string `json:"correlation_id"`
	EntityID        string `json:"entity_id"`
	EntityKind      string `json:"entity_kind"`
	Title           string `json:"title,omitempty"`
	OriginChannelID string `json:"origin_channel_id,omitempty"`
	OriginUserID    string `json:"origin_user_id,omitempty"`
}

type Client struct {
	TaskURL string
	NoteURL string
	Secret  string
	HTTP    *http.Client
}

// TaskConfigured reports whether task submissions have a webhook to go to.
func (c *Client) TaskConfigured() bool { return c != nil && c.TaskURL != "" }

// NoteConfigured reports whether note submissions have a webhook to go to.
func (c *Client) NoteConfigured() bool { return c != nil && c.NoteURL != "" }

func (c *Client) PostTask(ctx context.Context, sub TaskSubmission) error {
	if !c.TaskConfigured() {
		return ErrNotConfigured
	}
	return c.post(ctx, c.TaskURL, sub)
}

func (c *Client) PostNote(ctx context.Context, sub NoteSubmission) error {
	if !c.NoteConfigured() {
		return ErrNotConfigured
	}
	return c.post(ctx, c.NoteURL, sub)
}

func (c *Client) post(ctx context.Context, url string, payload any) error {
	if c.HTTP == nil {
		c.HTTP = &http.Client{Timeout: 10 * time.Second}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Secret != "" {
		req.Header.Set(SecretHeader, c.Secret)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("relay returned status %d", res.StatusCode)
	}
	return nil
}
