package api

import (
	"net/http"

	"github.com/slack-go/slack"

	"github.com/syllabus-hq/syllabot/internal/flow"
	"github.com/syllabus-hq/syllabot/internal/modal"
	"github.com/syllabus-hq/syllabot/internal/relay"
)

// Interactions dispatches button clicks, select changes and modal
// submissions.
func (h *Handler) Interactions(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readVerified(w, r)
	if !ok {
		return
	}

	cb, err := parseInteraction(body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch cb.Type {
	case slack.InteractionTypeBlockActions:
		h.handleBlockActions(w, r, cb)
	case slack.InteractionTypeViewSubmission:
		h.handleViewSubmission(w, cb)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func (h *Handler) handleBlockActions(w http.ResponseWriter, r *http.Request, cb slack.InteractionCallback) {
	if len(cb.ActionCallback.BlockActions) == 0 {
		w.WriteHeader(http.StatusOK)
		return
	}
	action := cb.ActionCallback.BlockActions[0]

	switch action.ActionID {
	case modal.ActionRecordTypeSelect, modal.ActionPipelineSelect, modal.ActionStageSelect:
		h.handleSelectionChange(w, cb, action)
	case modal.ActionAttachYes:
		h.handleAttachYes(w, r, cb, action.Value)
	case modal.ActionAttachNo:
		h.handleAttachNo(w, cb, action.Value)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

// handleSelectionChange advances the dependent-selection machine and
// rebuilds the modal. The acknowledgment goes out first; views.update is
// slow work.
func (h *Handler) handleSelectionChange(w http.ResponseWriter, cb slack.InteractionCallback, action *slack.BlockAction) {
	value := action.SelectedOption.Value
	if flow.IsPlaceholder(value) {
		// A pseudo-option was picked; rebuild so the widget drops it.
		value = ""
	}

	state := flow.Decode(cb.View.PrivateMetadata)
	var next flow.State
	switch action.ActionID {
	case modal.ActionRecordTypeSelect:
		next = flow.SetRecordType(state, flow.RecordType(value))
	case modal.ActionPipelineSelect:
		next = flow.SetPipeline(state, value)
	case modal.ActionStageSelect:
		next = flow.SetStage(state, value)
	}

	w.WriteHeader(http.StatusOK)
	if next == state {
		return
	}

	preserved := modal.Preserved{
		NoteTitle: inputValue(cb.View, modal.BlockNoteTitle, modal.ActionNoteTitleInput),
		NoteBody:  inputValue(cb.View, modal.BlockNoteBody, modal.ActionNoteBodyInput),
	}
	viewID := cb.View.ID
	h.async(func() {
		ctx, cancel := h.background()
		defer cancel()
		if err := h.Messenger.UpdateView(ctx, viewID, modal.BuildNoteModal(next, preserved)); err != nil {
			h.log().Warn("view_update_failed", "correlation_id", next.CorrelationID, "error", err.Error())
		}
	})
}

// handleAttachYes opens the attach modal for a live session. The open must
// use the click's trigger id, so it runs before the acknowledgment.
func (h *Handler) handleAttachYes(w http.ResponseWriter, r *http.Request, cb slack.InteractionCallback, sessionID string) {
	sess, ok := h.Sessions.Get(sessionID)
	if !ok {
		w.WriteHeader(http.StatusOK)
		h.notify(cb.Channel.ID, cb.User.ID, "That session has expired. Run "+CommandNote+" again to create another note.")
		return
	}
	if !relay.CanTransition(sess.Status, relay.StatusAttaching) {
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := h.Messenger.OpenView(r.Context(), cb.TriggerID, modal.BuildAttachModal(sess.ID)); err != nil {
		h.log().Warn("attach_modal_open_failed", "session_id", sess.ID, "error", err.Error())
		w.WriteHeader(http.StatusOK)
		h.notify(cb.Channel.ID, cb.User.ID, "Sorry, the attach form could not be opened. Please try again.")
		return
	}

	sess.Status = relay.StatusAttaching
	h.Sessions.Put(sess)
	h.record(sess.CorrelationID, relay.StatusAttaching, "attach modal opened")
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleAttachNo(w http.ResponseWriter, cb slack.InteractionCallback, sessionID string) {
	w.WriteHeader(http.StatusOK)

	sess, ok := h.Sessions.Get(sessionID)
	if !ok {
		h.notify(cb.Channel.ID, cb.User.ID, "That session has already expired.")
		return
	}
	h.Sessions.Delete(sess.ID)
	h.record(sess.CorrelationID, relay.StatusDeclined, "attach declined")
	h.log().Info("attach_declined", "session_id", sess.ID, "correlation_id", sess.CorrelationID)
	h.notify(cb.Channel.ID, cb.User.ID, "Okay, no files attached.")
}

// notify delivers a best-effort follow-up message; a terminal outcome must
// never be silent.
func (h *Handler) notify(channelID, userID, text string) {
	if channelID == "" {
		return
	}
	h.async(func() {
		ctx, cancel := h.background()
		defer cancel()
		if err := h.Messenger.PostEphemeral(ctx, channelID, userID, text); err != nil {
			if err2 := h.Messenger.PostMessage(ctx, channelID, text, nil); err2 != nil {
				h.log().Warn("notify_failed", "channel_id", channelID, "error", err2.Error())
			}
		}
	})
}

// inputValue reads a plain-text input from the view state.
func inputValue(view slack.View, blockID, actionID string) string {
	if view.State == nil {
		return ""
	}
	block, ok := view.State.Values[blockID]
	if !ok {
		return ""
	}
	return block[actionID].Value
}

// selectedValue reads a select element's chosen option from the view state.
// Placeholder pseudo-options are treated as no selection.
func selectedValue(view slack.View, blockID, actionID string) string {
	if view.State == nil {
		return ""
	}
	block, ok := view.State.Values[blockID]
	if !ok {
		return ""
	}
	value := block[actionID].SelectedOption.Value
	if flow.IsPlaceholder(value) {
		return ""
	}
	return value
}

// selectedDate reads a date picker's value from the view state.
func selectedDate(view slack.View, blockID, actionID string) string {
	if view.State == nil {
		return ""
	}
	block, ok := view.State.Values[blockID]
	if !ok {
		return ""
	}
	return block[actionID].SelectedDate
}
