package archive

import (
	"context"
	"os"
	"sort"

	"github.com/keepdeck/keep/internal/logger"
)

// Progress is one step of the batch's progress reporting, expressed as
// files attempted rather than bytes.
type Progress struct {
	Attempted int     `json:"attempted"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
	Current   int     `json:"current"` // candidate index in flight, -1 when done
	Completed bool    `json:"completed"`
}

// ProgressFunc receives progress updates during a batch.
type ProgressFunc func(Progress)

// ResultFunc receives one candidate's final upload result.
type ResultFunc func(index int, result UploadResult)

// BatchHooks connects a running batch back to the session that owns it.
// Every field is optional.
type BatchHooks struct {
	// OnProgress receives progress updates as files are attempted.
	OnProgress ProgressFunc
	// OnResult delivers each per-candidate result as it lands, letting
	// the owner publish it under its own lock.
	OnResult ResultFunc
	// Aborted is polled before each file; returning true stops the
	// batch the same way context cancellation does.
	Aborted func() bool
}

func (h BatchHooks) progress(p Progress) {
	if h.OnProgress != nil {
		h.OnProgress(p)
	}
}

func (h BatchHooks) result(index int, r UploadResult) {
	if h.OnResult != nil {
		h.OnResult(index, r)
	}
}

func (h BatchHooks) stopped() bool {
	return h.Aborted != nil && h.Aborted()
}

// BatchSummary aggregates a completed upload pass.
type BatchSummary struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	// Aborted is true when the session was abandoned mid-batch and the
	// remaining files were never started.
	Aborted bool `json:"aborted"`
}

// Uploader executes archival uploads for an intake session's plan.
// Uploads run strictly sequentially, one in flight at a time, in
// ascending candidate-index order.
type Uploader struct {
	client Client
	logger logger.Logger
}

// NewUploader creates an uploader over the archival-network client.
func NewUploader(client Client, log logger.Logger) *Uploader {
	return &Uploader{
		client: client,
		logger: log,
	}
}

// Run uploads every selected candidate in the plan. The caller owns
// the plan for the duration of the batch and results are also
// delivered through hooks.OnResult. A single file's failure is
// recorded against that file only and never aborts the batch; ctx
// cancellation and hooks.Aborted are checked cooperatively before each
// file, so an abandoned session stops starting new uploads without
// killing the one already dispatched.
func (u *Uploader) Run(ctx context.Context, plan *Plan, files []string, hooks BatchHooks) BatchSummary {
	indices := selectedInOrder(plan)
	total := len(indices)
	summary := BatchSummary{}

	if total == 0 {
		u.logger.Info("no candidates selected for archival upload")
		return summary
	}

	flatTags := FlattenTags(plan.UploadTags)
	u.logger.Info("starting archival upload batch",
		logger.Int("files", total),
		logger.Strings("tags", flatTags))

	for _, idx := range indices {
		if ctx.Err() != nil || hooks.stopped() {
			u.logger.Warn("upload batch abandoned, skipping remaining files",
				logger.Int("attempted", summary.Attempted),
				logger.Int("total", total))
			summary.Aborted = true
			break
		}

		if idx < 0 || idx >= len(files) {
			result := UploadResult{Success: false, Error: "candidate index out of range"}
			plan.UploadResults[idx] = result
			hooks.result(idx, result)
			summary.Attempted++
			summary.Failed++
			continue
		}

		hooks.progress(Progress{
			Attempted: summary.Attempted,
			Total:     total,
			Percent:   percent(summary.Attempted, total),
			Current:   idx,
		})

		result := u.uploadOne(ctx, files[idx], flatTags)
		if result.Success {
			if cost, ok := plan.CostEstimates[idx]; ok && cost.Error == "" {
				result.Cost = cost.Estimate.Fee
			}
			summary.Succeeded++
		} else {
			summary.Failed++
			u.logger.Warn("archival upload failed, continuing batch",
				logger.String("file", files[idx]),
				logger.String("error", result.Error))
		}
		plan.UploadResults[idx] = result
		hooks.result(idx, result)
		summary.Attempted++

		hooks.progress(Progress{
			Attempted: summary.Attempted,
			Total:     total,
			Percent:   percent(summary.Attempted, total),
			Current:   idx,
		})
	}

	// Surface the completed signal before control returns.
	hooks.progress(Progress{
		Attempted: summary.Attempted,
		Total:     total,
		Percent:   percent(summary.Attempted, total),
		Current:   -1,
		Completed: true,
	})

	u.logger.Info("archival upload batch completed",
		logger.Int("succeeded", summary.Succeeded),
		logger.Int("failed", summary.Failed),
		logger.Bool("aborted", summary.Aborted))

	return summary
}

func (u *Uploader) uploadOne(ctx context.Context, path string, tags []string) UploadResult {
	result, err := u.client.UploadFile(ctx, path, tags)
	if err != nil {
		// Collaborator unavailability is still a per-file failure from
		// the batch's point of view.
		return UploadResult{Success: false, Error: err.Error()}
	}
	return result
}

// EstimateCosts fills the plan's cost estimates for every selected
// candidate, keyed by file size. Best-effort: one file's failed
// estimate becomes an explicit error state and does not block the rest.
func (u *Uploader) EstimateCosts(ctx context.Context, plan *Plan, files []string) {
	for _, idx := range selectedInOrder(plan) {
		if idx < 0 || idx >= len(files) {
			plan.CostEstimates[idx] = CostState{Error: "candidate index out of range"}
			continue
		}

		info, err := os.Stat(files[idx])
		if err != nil {
			plan.CostEstimates[idx] = CostState{Error: err.Error()}
			continue
		}

		estimate, err := u.client.EstimateCost(ctx, info.Size())
		if err != nil {
			plan.CostEstimates[idx] = CostState{Error: err.Error()}
			continue
		}
		plan.CostEstimates[idx] = CostState{Estimate: estimate}
	}
}

func selectedInOrder(plan *Plan) []int {
	indices := make([]int, 0, len(plan.SelectedIndices))
	for idx := range plan.SelectedIndices {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	return indices
}

func percent(attempted, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(attempted) / float64(total) * 100
}
