// Package modal renders flow state into Slack Block Kit views and messages.
// Builders are pure: the same state renders to the same view, nonces move
// only when a transition clears a field.
package modal

import (
	"fmt"

	"github.com/slack-go/slack"

	"github.com/syllabus-hq/syllabot/internal/flow"
)

// Preserved carries free-text values the user already typed, read back from
// the open view so a rebuild triggered by a select change does not wipe
// them.
type Preserved struct {
	NoteTitle string
	NoteBody  string
}

// BlockID returns the structural id of a dependent selector for the given
// state, embedding the field's nonce. Changing the id forces the transport
// to discard the previously rendered widget instead of showing a stale
// selection tied to an old parent.
func BlockID(base string, s flow.State) string {
	switch base {
	case BlockPipeline:
		return fmt.Sprintf("%s:%d", base, s.PipelineNonce)
	case BlockStage:
		return fmt.Sprintf("%s:%d", base, s.StageNonce)
	case BlockRecord:
		return fmt.Sprintf("%s:%d", base, s.RecordNonce)
	}
	return base
}

func newPlainText(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.PlainTextType, text, false, false)
}

// BuildNoteModal renders the HubSpot note form for the given state. The
// state is round-tripped through the view's private metadata slot.
func BuildNoteModal(s flow.State, preserved Preserved) slack.ModalViewRequest {
	blocks := []slack.Block{
		buildRecordTypeBlock(s),
		buildExternalSelectBlock(BlockID(BlockPipeline, s), ActionPipelineSelect, "Pipeline", "Select a pipeline", true),
		buildExternalSelectBlock(BlockID(BlockStage, s), ActionStageSelect, "Stage", "Select a stage", true),
		buildExternalSelectBlock(BlockID(BlockRecord, s), ActionRecordSelect, "Record", "Search records", false),
		buildTextBlock(BlockNoteTitle, ActionNoteTitleInput, "Note title", "Short summary", preserved.NoteTitle, false, false),
		buildTextBlock(BlockNoteBody, ActionNoteBodyInput, "Note", "What happened?", preserved.NoteBody, false, true),
	}

	return slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      CallbackNoteModal,
		Title:           newPlainText("New note"),
		Submit:          newPlainText("Create"),
		Close:           newPlainText("Cancel"),
		PrivateMetadata: flow.Encode(s),
		Blocks:          slack.Blocks{BlockSet: blocks},
	}
}

// BuildTaskModal renders the Monday task form. It has no dependent chain;
// the state only threads correlation and origin through the metadata slot.
func BuildTaskModal(s flow.State) slack.ModalViewRequest {
	priority := slack.NewOptionsSelectBlockElement(
		slack.OptTypeStatic,
		newPlainText("Select a priority"),
		ActionTaskPrioritySel,
		slack.NewOptionBlockObject("low", newPlainText("Low"), nil),
		slack.NewOptionBlockObject("medium", newPlainText("Medium"), nil),
		slack.NewOptionBlockObject("high", newPlainText("High"), nil),
	)
	priorityBlock := slack.NewInputBlock(BlockTaskPriority, newPlainText("Priority"), nil, priority)
	priorityBlock.Optional = true

	dueBlock := slack.NewInputBlock(BlockTaskDue, newPlainText("Due date"), nil, slack.NewDatePickerBlockElement(ActionTaskDuePick))
	dueBlock.Optional = true

	groupBlock := buildExternalSelectBlock(BlockTaskGroup, ActionTaskGroupSelect, "Board group", "Select a group", true)
	groupBlock.Optional = true

	descBlock := buildTextBlock(BlockTaskDesc, ActionTaskDescInput, "Description", "Details", "", true, true)

	blocks := []slack.Block{
		buildTextBlock(BlockTaskTitle, ActionTaskTitleInput, "Task title", "What needs doing?", "", false, false),
		descBlock,
		groupBlock,
		dueBlock,
		priorityBlock,
	}

	return slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      CallbackTaskModal,
		Title:           newPlainText("New task"),
		Submit:          newPlainText("Create"),
		Close:           newPlainText("Cancel"),
		PrivateMetadata: flow.Encode(s),
		Blocks:          slack.Blocks{BlockSet: blocks},
	}
}

// BuildAttachModal renders the file-attachment form. The session id rides
// in the metadata slot; the note is looked up from the session store on
// submission.
func BuildAttachModal(sessionID string) slack.ModalViewRequest {
	return slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      CallbackAttachModal,
		Title:           newPlainText("Attach files"),
		Submit:          newPlainText("Attach"),
		Close:           newPlainText("Cancel"),
		PrivateMetadata: sessionID,
		Blocks: slack.Blocks{
			BlockSet: []slack.Block{
				buildTextBlock(BlockAttachFiles, ActionAttachFilesInput, "File ids", "One HubSpot file id per line", "", false, true),
			},
		},
	}
}

// BuildAttachPrompt renders the yes/no message asking whether to attach
// files to the note just created. Both buttons carry the session id.
func BuildAttachPrompt(sessionID, noteTitle string) []slack.Block {
	text := "Your note was created."
	if noteTitle != "" {
		text = fmt.Sprintf("Your note *%s* was created.", noteTitle)
	}
	yes := slack.NewButtonBlockElement(ActionAttachYes, sessionID, newPlainText("Yes, attach files"))
	yes.Style = slack.StylePrimary
	no := slack.NewButtonBlockElement(ActionAttachNo, sessionID, newPlainText("No thanks"))

	return []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, text+" Attach files to it?", false, false),
			nil, nil,
		),
		slack.NewActionBlock(BlockAttachDecision, yes, no),
	}
}

func buildRecordTypeBlock(s flow.State) *slack.InputBlock {
	opts := make([]*slack.OptionBlockObject, 0, 2)
	var initial *slack.OptionBlockObject
	for _, opt := range flow.RecordTypeOptions() {
		obj := slack.NewOptionBlockObject(opt.Value, newPlainText(opt.Label), nil)
		opts = append(opts, obj)
		if opt.Value == string(s.RecordType) {
			initial = obj
		}
	}

	element := slack.NewOptionsSelectBlockElement(slack.OptTypeStatic, newPlainText("Select a record type"), ActionRecordTypeSelect, opts...)
	element.InitialOption = initial

	block := slack.NewInputBlock(BlockRecordType, newPlainText("Record type"), nil, element)
	block.DispatchAction = true
	return block
}

// buildExternalSelectBlock builds an external select that loads its options
// through the options round trip. dispatch controls whether picking a value
// fires a block action (parents do, the leaf record does not need to).
func buildExternalSelectBlock(blockID, actionID, label, placeholder string, dispatch bool) *slack.InputBlock {
	element := slack.NewOptionsSelectBlockElement(slack.OptTypeExternal, newPlainText(placeholder), actionID)
	zero := 0
	element.MinQueryLength = &zero

	block := slack.NewInputBlock(blockID, newPlainText(label), nil, element)
	block.DispatchAction = dispatch
	return block
}

func buildTextBlock(blockID, actionID, label, placeholder, initialValue string, optional, multiline bool) *slack.InputBlock {
	element := slack.NewPlainTextInputBlockElement(newPlainText(placeholder), actionID)
	element.Multiline = multiline
	element.InitialValue = initialValue

	block := slack.NewInputBlock(blockID, newPlainText(label), nil, element)
	block.Optional = optional
	return block
}
