// Package monday is a thin wrapper over the Monday.com GraphQL API: board
// group listings for the task modal and item creation for the direct
// fallback path when the automation relay is unconfigured.
package monday

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/syllabus-hq/syllabot/internal/flow"
)

const DefaultBaseURL = "https://api.monday.com/v2"

type ItemInput struct {
	BoardID string
	GroupID string
	Name    string
	// ColumnValues is marshaled into the mutation's column_values argument
	// (description, due date, priority).
	ColumnValues map[string]any
}

type Client struct {
	Token   string
	BaseURL string
	HTTP    *http.Client
}

// ListGroups returns the groups of a board as label/id options, in board
// order.
func (c *Client) ListGroups(ctx context.Context, boardID string) ([]flow.Option, error) {
	if boardID == "" {
		return nil, fmt.Errorf("missing monday board id (set SYLLABOT_MONDAY_BOARD_ID)")
	}
	const gql = `query ($boardID: [ID!]) { boards (ids: $boardID) { groups { id title } } }`

	var out struct {
		Boards []struct {
			Groups []struct {
				ID    string `json:"id"`
				Title string `json:"title"`
			} `json:"groups"`
		} `json:"boards"`
	}
	if err := c.query(ctx, gql, map[string]any{"boardID": []string{boardID}}, &out); err != nil {
		return nil, err
	}
	if len(out.Boards) == 0 {
		return nil, nil
	}

	groups := out.Boards[0].Groups
	opts := make([]flow.Option, 0, len(groups))
	for _, g := range groups {
		opts = append(opts, flow.Option{Label: g.Title, Value: g.ID})
	}
	return opts, nil
}

// CreateItem creates a board item and returns its id.
func (c *Client) CreateItem(ctx context.Context, input ItemInput) (string, error) {
	if input.BoardID == "" {
		return "", fmt.Errorf("missing monday board id")
	}
	if input.Name == "" {
		return "", fmt.Errorf("missing item name")
	}

	columnValues := "{}"
	if len(input.ColumnValues) > 0 {
		raw, err := json.Marshal(input.ColumnValues)
		if err != nil {
			return "", err
		}
		columnValues = string(raw)
	}

	const gql = `mutation ($boardID: ID!, $groupID: String, $name: String!, $columnValues: JSON) {
		create_item (board_id: $boardID, group_id: $groupID, item_name: $name, column_values: $columnValues) { id }
	}`
	vars := map[string]any{
		"boardID":      input.BoardID,
		"name":         input.Name,
		"columnValues": columnValues,
	}
	if input.GroupID != "" {
		vars["groupID"] = input.GroupID
	}

	var out struct {
		CreateItem struct {
			ID string `json:"id"`
		} `json:"create_item"`
	}
	if err := c.query(ctx, gql, vars, &out); err != nil {
		return "", err
	}
	if out.CreateItem.ID == "" {
		return "", fmt.Errorf("monday returned empty item id")
	}
	return out.CreateItem.ID, nil
}

func (c *Client) query(ctx context.Context, gql string, vars map[string]any, out any) error {
	if c.Token == "" {
		return fmt.Errorf("missing monday token (set SYLLABOT_MONDAY_TOKEN)")
	}
	if c.HTTP == nil {
		c.HTTP = &http.Client{Timeout: 10 * time.Second}
	}
	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	body, err := json.Marshal(map[string]any{"query": gql, "variables": vars})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.Token)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("monday returned status %d", res.StatusCode)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return err
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("monday graphql error: %s", envelope.Errors[0].Message)
	}
	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	return json.Unmarshal(envelope.Data, out)
}
