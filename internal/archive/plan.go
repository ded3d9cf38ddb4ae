package archive

// CostState is the per-candidate estimate slot: either a quote or an
// explicit error, never a silent zero.
type CostState struct {
	Estimate CostEstimate `json:"estimate"`
	Error    string       `json:"error,omitempty"`
}

// Plan is the per-session archival state: which candidates to upload,
// under which tags, what they are expected to cost, and how each
// attempt ended. Populated incrementally while the intake session's
// archival phase is active.
type Plan struct {
	Enabled         bool                 `json:"enabled"`
	SelectedIndices map[int]bool         `json:"selected_indices"`
	UploadTags      []UploadTag          `json:"upload_tags"`
	CostEstimates   map[int]CostState    `json:"cost_estimates"`
	UploadResults   map[int]UploadResult `json:"upload_results"`
}

// NewPlan creates an empty, disabled archival plan.
func NewPlan() *Plan {
	return &Plan{
		SelectedIndices: make(map[int]bool),
		CostEstimates:   make(map[int]CostState),
		UploadResults:   make(map[int]UploadResult),
	}
}

// Clone returns a detached deep copy. Callers serialize or mutate the
// copy while the live plan keeps changing under the session lock.
func (p *Plan) Clone() *Plan {
	clone := &Plan{
		Enabled:         p.Enabled,
		SelectedIndices: make(map[int]bool, len(p.SelectedIndices)),
		UploadTags:      append([]UploadTag(nil), p.UploadTags...),
		CostEstimates:   make(map[int]CostState, len(p.CostEstimates)),
		UploadResults:   make(map[int]UploadResult, len(p.UploadResults)),
	}
	for idx, selected := range p.SelectedIndices {
		clone.SelectedIndices[idx] = selected
	}
	for idx, state := range p.CostEstimates {
		clone.CostEstimates[idx] = state
	}
	for idx, result := range p.UploadResults {
		clone.UploadResults[idx] = result
	}
	return clone
}

// SetEnabled toggles archival. Disabling clears all plan state.
func (p *Plan) SetEnabled(enabled bool) {
	p.Enabled = enabled
	if !enabled {
		p.SelectedIndices = make(map[int]bool)
		p.UploadTags = nil
		p.CostEstimates = make(map[int]CostState)
		p.UploadResults = make(map[int]UploadResult)
	}
}

// ToggleSelection flips one candidate index in or out of the upload set.
func (p *Plan) ToggleSelection(index int) {
	if p.SelectedIndices[index] {
		delete(p.SelectedIndices, index)
		return
	}
	p.SelectedIndices[index] = true
}

// AddTag sanitizes and appends an upload tag. Keys are deduplicated
// post-sanitization; a rejected key leaves the plan unchanged.
func (p *Plan) AddTag(key, value string) error {
	sanitized, err := SanitizeTagKey(key)
	if err != nil {
		return err
	}
	for _, existing := range p.UploadTags {
		if existing.Key == sanitized {
			return ErrDuplicateTagKey
		}
	}
	p.UploadTags = append(p.UploadTags, UploadTag{Key: sanitized, Value: value})
	return nil
}

// HasSelections reports whether any candidate is queued for upload.
func (p *Plan) HasSelections() bool {
	return len(p.SelectedIndices) > 0
}

// SuccessfulUploads returns the indices whose upload succeeded.
func (p *Plan) SuccessfulUploads() map[int]UploadResult {
	out := make(map[int]UploadResult)
	for i, res := range p.UploadResults {
		if res.Success {
			out[i] = res
		}
	}
	return out
}
