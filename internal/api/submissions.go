package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/slack-go/slack"

	"github.com/syllabus-hq/syllabot/internal/flow"
	"github.com/syllabus-hq/syllabot/internal/hubspot"
	"github.com/syllabus-hq/syllabot/internal/modal"
	"github.com/syllabus-hq/syllabot/internal/monday"
	"github.com/syllabus-hq/syllabot/internal/relay"
)

// errorsResponse reports validation failures inline, attached to the
// offending blocks, as part of the acknowledgment.
type errorsResponse struct {
	ResponseAction string            `json:"response_action"`
	Errors         map[string]string `json:"errors"`
}

func (h *Handler) handleViewSubmission(w http.ResponseWriter, cb slack.InteractionCallback) {
	switch cb.View.CallbackID {
	case modal.CallbackNoteModal:
		h.handleNoteSubmission(w, cb)
	case modal.CallbackTaskModal:
		h.handleTaskSubmission(w, cb)
	case modal.CallbackAttachModal:
		h.handleAttachSubmission(w, cb)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

// handleNoteSubmission validates entirely from already-known state (no
// network calls) so failures can be attached to the offending field before
// the acknowledgment commits.
func (h *Handler) handleNoteSubmission(w http.ResponseWriter, cb slack.InteractionCallback) {
	state := flow.Decode(cb.View.PrivateMetadata)
	// The record select does not dispatch actions; its pick arrives here.
	state = flow.SetRecord(state, selectedValue(cb.View, modal.BlockID(modal.BlockRecord, state), modal.ActionRecordSelect))

	title := strings.TrimSpace(inputValue(cb.View, modal.BlockNoteTitle, modal.ActionNoteTitleInput))
	noteBody := strings.TrimSpace(inputValue(cb.View, modal.BlockNoteBody, modal.ActionNoteBodyInput))

	errs := map[string]string{}
	if state.RecordType == "" {
		errs[modal.BlockRecordType] = "Select a record type"
	}
	if state.PipelineID == "" {
		errs[modal.BlockID(modal.BlockPipeline, state)] = "Select a pipeline"
	}
	if state.StageID == "" {
		errs[modal.BlockID(modal.BlockStage, state)] = "Select a stage"
	}
	if state.RecordID == "" {
		errs[modal.BlockID(modal.BlockRecord, state)] = "Select a record"
	}
	if title == "" {
		errs[modal.BlockNoteTitle] = "Enter a title"
	}
	if noteBody == "" {
		errs[modal.BlockNoteBody] = "Enter the note text"
	}
	if len(errs) > 0 {
		writeJSON(w, http.StatusOK, errorsResponse{ResponseAction: "errors", Errors: errs})
		return
	}

	w.WriteHeader(http.StatusOK)
	h.async(func() {
		ctx, cancel := h.background()
		defer cancel()
		h.deliverNote(ctx, state, title, noteBody)
	})
}

// deliverNote runs the slow path after acknowledgment: relay to the
// automation webhook, or create the note directly when no webhook is
// configured. The inline-error channel is closed by now, so failures go out
// as follow-up messages.
func (h *Handler) deliverNote(ctx context.Context, state flow.State, title, noteBody string) {
	h.record(state.CorrelationID, relay.StatusSubmitted, "note submitted")
	sub := relay.NoteSubmission{
		CorrelationID:   state.CorrelationID,
		RecordType:      string(state.RecordType),
		PipelineID:      state.PipelineID,
		StageID:         state.StageID,
		RecordID:        state.RecordID,
		Title:           title,
		Body:            noteBody,
		OriginChannelID: state.OriginChannelID,
		OriginUserID:    state.OriginUserID,
	}

	if h.Relay.NoteConfigured() {
		if err := h.Relay.PostNote(ctx, sub); err != nil {
			h.log().Warn("note_relay_failed", "correlation_id", state.CorrelationID, "error", err.Error())
			h.record(state.CorrelationID, relay.StatusFailed, "relay rejected the note")
			h.notify(state.OriginChannelID, state.OriginUserID, "Your note could not be delivered. Run "+CommandNote+" to try again.")
			return
		}
		h.log().Info("note_relayed", "correlation_id", state.CorrelationID)
		h.record(state.CorrelationID, relay.StatusRelayed, "note sent to automation")
		h.notify(state.OriginChannelID, state.OriginUserID, "Note submitted. You'll get a DM when it's created.")
		return
	}

	if h.Notes == nil {
		h.notify(state.OriginChannelID, state.OriginUserID, "The note integration is not configured (set SYLLABOT_ZAPIER_NOTE_URL or SYLLABOT_HUBSPOT_TOKEN).")
		return
	}

	noteID, err := h.Notes.CreateNote(ctx, hubspot.NoteInput{
		Body:       title + "\n\n" + noteBody,
		RecordType: state.RecordType,
		RecordID:   state.RecordID,
	})
	if err != nil {
		h.log().Warn("note_create_failed", "correlation_id", state.CorrelationID, "error", err.Error())
		h.record(state.CorrelationID, relay.StatusFailed, "note create failed")
		h.notify(state.OriginChannelID, state.OriginUserID, "Your note could not be created. Run "+CommandNote+" to try again.")
		return
	}
	h.entityCreated(ctx, relay.Callback{
		CorrelationID:   state.CorrelationID,
		EntityID:        noteID,
		EntityKind:      "note",
		Title:           title,
		OriginChannelID: state.OriginChannelID,
		OriginUserID:    state.OriginUserID,
	})
}

func (h *Handler) handleTaskSubmission(w http.ResponseWriter, cb slack.InteractionCallback) {
	state := flow.Decode(cb.View.PrivateMetadata)

	title := strings.TrimSpace(inputValue(cb.View, modal.BlockTaskTitle, modal.ActionTaskTitleInput))
	if title == "" {
		writeJSON(w, http.StatusOK, errorsResponse{
			ResponseAction: "errors",
			Errors:         map[string]string{modal.BlockTaskTitle: "Enter a title"},
		})
		return
	}

	desc := strings.TrimSpace(inputValue(cb.View, modal.BlockTaskDesc, modal.ActionTaskDescInput))
	due := selectedDate(cb.View, modal.BlockTaskDue, modal.ActionTaskDuePick)
	priority := selectedValue(cb.View, modal.BlockTaskPriority, modal.ActionTaskPrioritySel)
	group := selectedValue(cb.View, modal.BlockTaskGroup, modal.ActionTaskGroupSelect)
	if group == "" {
		group = h.MondayGroupID
	}

	w.WriteHeader(http.StatusOK)
	h.async(func() {
		ctx, cancel := h.background()
		defer cancel()
		h.deliverTask(ctx, state, relay.TaskSubmission{
			CorrelationID:   state.CorrelationID,
			Title:           title,
			Description:     desc,
			DueDate:         due,
			Priority:        priority,
			BoardID:         h.MondayBoardID,
			GroupID:         group,
			OriginChannelID: state.OriginChannelID,
			OriginUserID:    state.OriginUserID,
		})
	})
}

func (h *Handler) deliverTask(ctx context.Context, state flow.State, sub relay.TaskSubmission) {
	h.record(state.CorrelationID, relay.StatusSubmitted, "task submitted")
	if h.Relay.TaskConfigured() {
		if err := h.Relay.PostTask(ctx, sub); err != nil {
			h.log().Warn("task_relay_failed", "correlation_id", state.CorrelationID, "error", err.Error())
			h.record(state.CorrelationID, relay.StatusFailed, "relay rejected the task")
			h.notify(state.OriginChannelID, state.OriginUserID, "Your task could not be delivered. Run "+CommandTask+" to try again.")
			return
		}
		h.log().Info("task_relayed", "correlation_id", state.CorrelationID)
		h.record(state.CorrelationID, relay.StatusRelayed, "task sent to automation")
		h.notify(state.OriginChannelID, state.OriginUserID, "Task submitted: "+sub.Title)
		return
	}

	if h.Items == nil {
		h.notify(state.OriginChannelID, state.OriginUserID, "The task integration is not configured (set SYLLABOT_ZAPIER_TASK_URL or SYLLABOT_MONDAY_TOKEN).")
		return
	}

	itemID, err := h.Items.CreateItem(ctx, monday.ItemInput{
		BoardID: sub.BoardID,
		GroupID: sub.GroupID,
		Name:    sub.Title,
	})
	if err != nil {
		h.log().Warn("task_create_failed", "correlation_id", state.CorrelationID, "error", err.Error())
		h.record(state.CorrelationID, relay.StatusFailed, "task create failed")
		h.notify(state.OriginChannelID, state.OriginUserID, "Your task could not be created. Run "+CommandTask+" to try again.")
		return
	}
	h.log().Info("task_created", "correlation_id", state.CorrelationID, "item_id", itemID)
	h.record(state.CorrelationID, relay.StatusCreated, "item "+itemID+" created")
	h.notify(state.OriginChannelID, state.OriginUserID, "Task created: "+sub.Title)
}

func (h *Handler) handleAttachSubmission(w http.ResponseWriter, cb slack.InteractionCallback) {
	sessionID := cb.View.PrivateMetadata
	sess, ok := h.Sessions.Get(sessionID)
	if !ok {
		writeJSON(w, http.StatusOK, errorsResponse{
			ResponseAction: "errors",
			Errors:         map[string]string{modal.BlockAttachFiles: "This session has expired. Run " + CommandNote + " again."},
		})
		return
	}

	fileIDs := splitFileIDs(inputValue(cb.View, modal.BlockAttachFiles, modal.ActionAttachFilesInput))
	if len(fileIDs) == 0 {
		writeJSON(w, http.StatusOK, errorsResponse{
			ResponseAction: "errors",
			Errors:         map[string]string{modal.BlockAttachFiles: "Enter at least one file id"},
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	h.async(func() {
		ctx, cancel := h.background()
		defer cancel()
		h.attachFiles(ctx, sess.ID, fileIDs)
	})
}

func (h *Handler) attachFiles(ctx context.Context, sessionID string, fileIDs []string) {
	sess, ok := h.Sessions.Get(sessionID)
	if !ok {
		return
	}
	channel := sess.DMChannelID
	if channel == "" {
		channel = sess.OriginChannelID
	}

	if h.Notes == nil {
		h.notify(channel, sess.OriginUserID, "The attachment integration is not configured (set SYLLABOT_HUBSPOT_TOKEN).")
		return
	}
	if err := h.Notes.AttachFiles(ctx, sess.EntityID, fileIDs); err != nil {
		h.log().Warn("attach_failed", "session_id", sess.ID, "error", err.Error())
		h.notify(channel, sess.OriginUserID, "The files could not be attached to your note.")
		return
	}

	if relay.CanTransition(sess.Status, relay.StatusAttached) {
		sess.Status = relay.StatusAttached
	}
	h.Sessions.Delete(sess.ID)
	h.record(sess.CorrelationID, relay.StatusAttached, "files attached")
	h.log().Info("files_attached", "session_id", sess.ID, "correlation_id", sess.CorrelationID, "count", len(fileIDs))
	h.notify(channel, sess.OriginUserID, "Files attached to your note.")
}

// splitFileIDs accepts one id per line, tolerating commas and blanks.
func splitFileIDs(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == ',' || r == ';'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
