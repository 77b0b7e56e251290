package api

import (
	"net/http"

	"github.com/slack-go/slack"

	"github.com/syllabus-hq/syllabot/internal/flow"
	"github.com/syllabus-hq/syllabot/internal/modal"
)

// optionsResponse is the body Slack expects from an options load URL.
type optionsResponse struct {
	Options []*slack.OptionBlockObject `json:"options"`
}

// Options serves the option-loading round trip for external selects. The
// acknowledgment payload IS the response here, so the list is computed
// synchronously — always from the currently persisted metadata state, never
// from the request's own possibly-stale snapshot.
func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readVerified(w, r)
	if !ok {
		return
	}

	cb, err := parseInteraction(body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	state := flow.Decode(cb.View.PrivateMetadata)

	var opts []flow.Option
	switch cb.ActionID {
	case modal.ActionRecordTypeSelect:
		opts, err = flow.Options(r.Context(), h.Source, flow.FieldRecordType, state, cb.Value)
	case modal.ActionPipelineSelect:
		opts, err = flow.Options(r.Context(), h.Source, flow.FieldPipeline, state, cb.Value)
	case modal.ActionStageSelect:
		opts, err = flow.Options(r.Context(), h.Source, flow.FieldStage, state, cb.Value)
	case modal.ActionRecordSelect:
		opts, err = flow.Options(r.Context(), h.Source, flow.FieldRecord, state, cb.Value)
	case modal.ActionTaskGroupSelect:
		opts, err = h.Source.TaskGroups(r.Context(), cb.Value)
	default:
		opts = []flow.Option{flow.PlaceholderNoMatches}
	}
	if err != nil {
		h.log().Warn("options_load_failed", "action_id", cb.ActionID, "correlation_id", state.CorrelationID, "error", err.Error())
		opts = []flow.Option{flow.PlaceholderLoadFailed}
	}

	writeJSON(w, http.StatusOK, toOptionsResponse(opts))
}

func toOptionsResponse(opts []flow.Option) optionsResponse {
	out := optionsResponse{Options: make([]*slack.OptionBlockObject, 0, len(opts))}
	for _, opt := range flow.Cap(opts) {
		out.Options = append(out.Options, slack.NewOptionBlockObject(
			opt.Value,
			slack.NewTextBlockObject(slack.PlainTextType, opt.Label, false, false),
			nil,
		))
	}
	return out
}
