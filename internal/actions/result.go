package actions

// ActionResult is the uniform outcome value returned by every action
// invocation. It is created fresh per call and must not be mutated after it is
// returned.
//
// A successful, informative action always sets ExtractedContent; a failed
// action always sets Error. Both may be absent only for pure no-ops. Error
// strings are written for the planning model, which is the primary consumer of
// failure diagnostics.
type ActionResult struct {
	// IsDone marks the overall task as complete.
	IsDone bool `json:"is_done,omitempty"`
	// ExtractedContent is the human-readable outcome of the action.
	ExtractedContent string `json:"extracted_content,omitempty"`
	// Error carries the diagnostic of a failed or warning outcome.
	Error string `json:"error,omitempty"`
	// IncludeInMemory requests that this result's content be retained in the
	// agent's running transcript for future planning turns.
	IncludeInMemory bool `json:"include_in_memory,omitempty"`
}

// Failed reports whether the result carries an error diagnostic.
func (r *ActionResult) Failed() bool {
	return r != nil && r.Error != ""
}

// Done builds the terminal result that marks the run complete.
func Done(text string) *ActionResult {
	return &ActionResult{IsDone: true, ExtractedContent: text}
}

// Success builds an informative, successful result.
func Success(content string, includeInMemory bool) *ActionResult {
	return &ActionResult{ExtractedContent: content, IncludeInMemory: includeInMemory}
}

// Failure builds a recovered, reportable failure. The diagnostic is retained
// in memory so the model can self-correct on the next planning turn.
func Failure(diagnostic string) *ActionResult {
	return &ActionResult{Error: diagnostic, IncludeInMemory: true}
}
