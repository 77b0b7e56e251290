package modal

// Callback ids routed on view submission.
const (
	CallbackTaskModal   = "task_modal"
	CallbackNoteModal   = "note_modal"
	CallbackAttachModal = "attach_modal"
)

// Note modal block/action ids. Dependent selector block ids are suffixed
// with the per-field nonce from the flow state (see BlockID).
const (
	BlockRecordType        = "record_type_block"
	ActionRecordTypeSelect = "record_type_select"
	BlockPipeline          = "pipeline_block"
	ActionPipelineSelect   = "pipeline_select"
	BlockStage             = "stage_block"
	ActionStageSelect      = "stage_select"
	BlockRecord            = "record_block"
	ActionRecordSelect     = "record_select"
	BlockNoteTitle         = "note_title_block"
	ActionNoteTitleInput   = "note_title_input"
	BlockNoteBody          = "note_body_block"
	ActionNoteBodyInput    = "note_body_input"
)

// Task modal block/action ids.
const (
	BlockTaskTitle        = "task_title_block"
	ActionTaskTitleInput  = "task_title_input"
	BlockTaskDesc         = "task_desc_block"
	ActionTaskDescInput   = "task_desc_input"
	BlockTaskDue          = "task_due_block"
	ActionTaskDuePick     = "task_due_pick"
	BlockTaskPriority     = "task_priority_block"
	ActionTaskPrioritySel = "task_priority_select"
	BlockTaskGroup        = "task_group_block"
	ActionTaskGroupSelect = "task_group_select"
)

// Attach flow ids.
const (
	BlockAttachDecision    = "attach_decision_block"
	ActionAttachYes        = "attach_yes"
	ActionAttachNo         = "attach_no"
	BlockAttachFiles       = "attach_files_block"
	ActionAttachFilesInput = "attach_files_input"
)
