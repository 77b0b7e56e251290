package flow

// Transitions are pure: given the current state and one observed field
// change they return the next state, clearing every invalidated downstream
// field and bumping its nonce so the rebuilt widget starts empty.

// SetRecordType sets the root field. Any change clears pipeline, stage and
// record. Re-selecting the current value is a no-op.
func SetRecordType(s State, rt RecordType) State {
	if rt == s.RecordType {
		return s
	}
	s.RecordType = rt
	return clearFromPipeline(s)
}

// SetPipeline sets the pipeline and clears stage and record. Ignored while
// no record type is chosen; the transport can deliver a stale select action
// that raced ahead of a root change.
func SetPipeline(s State, pipelineID string) State {
	if s.RecordType == "" {
		return s
	}
	if pipelineID == s.PipelineID {
		return s
	}
	s.PipelineID = pipelineID
	return clearFromStage(s)
}

// SetStage sets the stage and clears the record. Ignored while no pipeline
// is chosen.
func SetStage(s State, stageID string) State {
	if s.PipelineID == "" {
		return s
	}
	if stageID == s.StageID {
		return s
	}
	s.StageID = stageID
	return clearRecord(s)
}

// SetRecord sets the leaf field. Ignored unless the full parent chain is in
// place.
func SetRecord(s State, recordID string) State {
	if s.PipelineID == "" || s.StageID == "" {
		return s
	}
	s.RecordID = recordID
	return s
}

func clearFromPipeline(s State) State {
	if s.PipelineID != "" {
		s.PipelineID = ""
		s.PipelineNonce++
	}
	return clearFromStage(s)
}

func clearFromStage(s State) State {
	if s.StageID != "" {
		s.StageID = ""
		s.StageNonce++
	}
	return clearRecord(s)
}

func clearRecord(s State) State {
	if s.RecordID != "" {
		s.RecordID = ""
		s.RecordNonce++
	}
	return s
}
