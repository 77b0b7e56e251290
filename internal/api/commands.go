package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/slack-go/slack"

	"github.com/syllabus-hq/syllabot/internal/flow"
	"github.com/syllabus-hq/syllabot/internal/modal"
)

const (
	CommandTask = "/syllabot-task"
	CommandNote = "/syllabot-note"
)

// SlashCommands opens the matching modal. views.open must run before the
// trigger id expires, so it happens synchronously; the empty 200 afterwards
// is the acknowledgment.
func (h *Handler) SlashCommands(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readVerified(w, r)
	if !ok {
		return
	}
	restoreBody(r, body)

	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	correlationID := uuid.NewString()
	var view slack.ModalViewRequest
	switch cmd.Command {
	case CommandTask:
		state := flow.NewState(flow.KindTask, correlationID, cmd.ChannelID, cmd.UserID)
		view = modal.BuildTaskModal(state)
	case CommandNote:
		state := flow.NewState(flow.KindNote, correlationID, cmd.ChannelID, cmd.UserID)
		view = modal.BuildNoteModal(state, modal.Preserved{})
	default:
		writeText(w, "Unknown command. Try "+CommandTask+" or "+CommandNote+".")
		return
	}

	if err := h.Messenger.OpenView(r.Context(), cmd.TriggerID, view); err != nil {
		h.log().Warn("view_open_failed", "command", cmd.Command, "correlation_id", correlationID, "error", err.Error())
		writeText(w, "Sorry, the form could not be opened. Please try again.")
		return
	}
	h.log().Info("modal_opened", "command", cmd.Command, "correlation_id", correlationID, "user_id", cmd.UserID)
	w.WriteHeader(http.StatusOK)
}
