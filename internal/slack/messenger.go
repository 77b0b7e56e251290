// Package slack holds the transport-side pieces of the Slack integration:
// request signature verification and a small messenger surface over the Web
// API so handlers and tests can inject fakes.
package slack

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// Messenger is the slice of the Slack Web API the gateway uses.
type Messenger interface {
	OpenView(ctx context.Context, triggerID string, view slack.ModalViewRequest) error
	UpdateView(ctx context.Context, viewID string, view slack.ModalViewRequest) error
	PostMessage(ctx context.Context, channelID, text string, blocks []slack.Block) error
	PostEphemeral(ctx context.Context, channelID, userID, text string) error
	OpenDM(ctx context.Context, userID string) (string, error)
}

// WebMessenger implements Messenger against the real Web API.
type WebMessenger struct {
	API *slack.Client
}

func NewWebMessenger(botToken string, opts ...slack.Option) *WebMessenger {
	return &WebMessenger{API: slack.New(botToken, opts...)}
}

func (m *WebMessenger) OpenView(ctx context.Context, triggerID string, view slack.ModalViewRequest) error {
	_, err := m.API.OpenViewContext(ctx, triggerID, view)
	if err != nil {
		return fmt.Errorf("views.open: %w", err)
	}
	return nil
}

func (m *WebMessenger) UpdateView(ctx context.Context, viewID string, view slack.ModalViewRequest) error {
	// An empty hash skips Slack's optimistic-concurrency check; within one
	// view interactions arrive serially, so the last write is the right one.
	_, err := m.API.UpdateViewContext(ctx, view, "", "", viewID)
	if err != nil {
		return fmt.Errorf("views.update: %w", err)
	}
	return nil
}

func (m *WebMessenger) PostMessage(ctx context.Context, channelID, text string, blocks []slack.Block) error {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if len(blocks) > 0 {
		opts = append(opts, slack.MsgOptionBlocks(blocks...))
	}
	_, _, err := m.API.PostMessageContext(ctx, channelID, opts...)
	if err != nil {
		return fmt.Errorf("chat.postMessage: %w", err)
	}
	return nil
}

func (m *WebMessenger) PostEphemeral(ctx context.Context, channelID, userID, text string) error {
	_, err := m.API.PostEphemeralContext(ctx, channelID, userID, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("chat.postEphemeral: %w", err)
	}
	return nil
}

func (m *WebMessenger) OpenDM(ctx context.Context, userID string) (string, error) {
	channel, _, _, err := m.API.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users:    []string{userID},
		ReturnIM: true,
	})
	if err != nil {
		return "", fmt.Errorf("conversations.open: %w", err)
	}
	return channel.ID, nil
}
