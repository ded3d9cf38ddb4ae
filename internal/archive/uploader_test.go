package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepdeck/keep/internal/logger"
)

// fakeClient scripts per-path outcomes.
type fakeClient struct {
	failPaths   map[string]bool
	estimateErr error
	fee         float64
	uploaded    []string
}

func (f *fakeClient) EstimateCost(_ context.Context, byteSize int64) (CostEstimate, error) {
	if f.estimateErr != nil {
		return CostEstimate{}, f.estimateErr
	}
	return CostEstimate{Fee: f.fee * float64(byteSize)}, nil
}

func (f *fakeClient) UploadFile(_ context.Context, path string, tags []string) (UploadResult, error) {
	f.uploaded = append(f.uploaded, path)
	if f.failPaths[path] {
		return UploadResult{Success: false, Error: "simulated deploy failure"}, nil
	}
	return UploadResult{Success: true, TransactionID: "tx-" + filepath.Base(path), Tags: tags}, nil
}

func (f *fakeClient) Balance(_ context.Context) (float64, error) {
	return 1.0, nil
}

func tempFiles(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 0, len(names))
	for i, name := range names {
		path := filepath.Join(dir, name)
		content := fmt.Sprintf("content-%d", i)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		paths = append(paths, path)
	}
	return paths
}

func TestRunContinuesPastSingleFailure(t *testing.T) {
	files := tempFiles(t, "a.md", "b.md", "c.md")
	client := &fakeClient{failPaths: map[string]bool{files[0]: true}}
	uploader := NewUploader(client, logger.NewNop())

	plan := NewPlan()
	plan.SetEnabled(true)
	plan.ToggleSelection(0)
	plan.ToggleSelection(1)
	plan.ToggleSelection(2)

	var progress []Progress
	summary := uploader.Run(context.Background(), plan, files, BatchHooks{
		OnProgress: func(p Progress) {
			progress = append(progress, p)
		},
	})

	assert.Equal(t, 3, summary.Attempted)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.False(t, summary.Aborted)

	// A(fails), B(succeeds), C(succeeds)
	require.Contains(t, plan.UploadResults, 0)
	assert.False(t, plan.UploadResults[0].Success)
	assert.NotEmpty(t, plan.UploadResults[0].Error)
	assert.True(t, plan.UploadResults[1].Success)
	assert.True(t, plan.UploadResults[2].Success)

	// Batch reports completed rather than aborting after A's failure.
	require.NotEmpty(t, progress)
	last := progress[len(progress)-1]
	assert.True(t, last.Completed)
	assert.InDelta(t, 100.0, last.Percent, 0.001)
}

func TestRunStrictlySequentialAscendingOrder(t *testing.T) {
	files := tempFiles(t, "a.md", "b.md", "c.md")
	client := &fakeClient{}
	uploader := NewUploader(client, logger.NewNop())

	plan := NewPlan()
	plan.SetEnabled(true)
	// Select out of order; uploads must still run ascending.
	plan.ToggleSelection(2)
	plan.ToggleSelection(0)

	uploader.Run(context.Background(), plan, files, BatchHooks{})

	require.Equal(t, []string{files[0], files[2]}, client.uploaded)
}

func TestRunAttachesEstimatedCostOnSuccess(t *testing.T) {
	files := tempFiles(t, "a.md")
	client := &fakeClient{fee: 0.001}
	uploader := NewUploader(client, logger.NewNop())

	plan := NewPlan()
	plan.SetEnabled(true)
	plan.ToggleSelection(0)

	uploader.EstimateCosts(context.Background(), plan, files)
	require.Contains(t, plan.CostEstimates, 0)
	require.Empty(t, plan.CostEstimates[0].Error)

	uploader.Run(context.Background(), plan, files, BatchHooks{})

	assert.Equal(t, plan.CostEstimates[0].Estimate.Fee, plan.UploadResults[0].Cost)
}

func TestRunCancelledContextSkipsRemaining(t *testing.T) {
	files := tempFiles(t, "a.md", "b.md")
	client := &fakeClient{}
	uploader := NewUploader(client, logger.NewNop())

	plan := NewPlan()
	plan.SetEnabled(true)
	plan.ToggleSelection(0)
	plan.ToggleSelection(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := uploader.Run(ctx, plan, files, BatchHooks{})

	assert.True(t, summary.Aborted)
	assert.Equal(t, 0, summary.Attempted)
	assert.Empty(t, client.uploaded)
}

func TestRunAbortHookStopsRemaining(t *testing.T) {
	files := tempFiles(t, "a.md", "b.md", "c.md")
	client := &fakeClient{}
	uploader := NewUploader(client, logger.NewNop())

	plan := NewPlan()
	plan.SetEnabled(true)
	plan.ToggleSelection(0)
	plan.ToggleSelection(1)
	plan.ToggleSelection(2)

	// Abandon the batch once the first result has landed.
	var results []int
	summary := uploader.Run(context.Background(), plan, files, BatchHooks{
		OnResult: func(index int, _ UploadResult) {
			results = append(results, index)
		},
		Aborted: func() bool { return len(results) > 0 },
	})

	assert.True(t, summary.Aborted)
	assert.Equal(t, 1, summary.Attempted)
	assert.Equal(t, []int{0}, results)
	assert.Equal(t, []string{files[0]}, client.uploaded)
}

func TestEstimateCostsIsolatesFailures(t *testing.T) {
	files := tempFiles(t, "a.md")
	// Index 1 points past the candidate list, index 2 at a missing file.
	files = append(files, filepath.Join(t.TempDir(), "missing.md"))

	client := &fakeClient{fee: 0.001}
	uploader := NewUploader(client, logger.NewNop())

	plan := NewPlan()
	plan.SetEnabled(true)
	plan.ToggleSelection(0)
	plan.ToggleSelection(1)

	uploader.EstimateCosts(context.Background(), plan, files)

	assert.Empty(t, plan.CostEstimates[0].Error)
	assert.NotEmpty(t, plan.CostEstimates[1].Error, "missing file must be an explicit error state")
}

func TestEstimateCostsClientErrorSurfaced(t *testing.T) {
	files := tempFiles(t, "a.md")
	client := &fakeClient{estimateErr: errors.New("gateway down")}
	uploader := NewUploader(client, logger.NewNop())

	plan := NewPlan()
	plan.SetEnabled(true)
	plan.ToggleSelection(0)

	uploader.EstimateCosts(context.Background(), plan, files)

	assert.Equal(t, "gateway down", plan.CostEstimates[0].Error)
}
