package intake

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/keepdeck/keep/internal/archive"
	"github.com/keepdeck/keep/internal/catalog"
	"github.com/keepdeck/keep/internal/domain"
	"github.com/keepdeck/keep/internal/logger"
	"github.com/keepdeck/keep/internal/utils"
)

// baselineURLTags is the fixed tag baseline every external resource
// starts with; bulk tags from the session are appended.
var baselineURLTags = []string{"web"}

// ItemResult is the per-candidate outcome of a commit.
type ItemResult struct {
	Candidate  string `json:"candidate"`
	ResourceID string `json:"resource_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CommitReport summarizes a commit: which candidates became resources
// and which failed. A failed candidate never prevents the rest.
type CommitReport struct {
	Items     []ItemResult `json:"items"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
}

// Assembler converts a completed intake session into catalog entries
// and submits them, one per candidate, in candidate order.
type Assembler struct {
	catalog    *catalog.Catalog
	gatewayURL string
	logger     logger.Logger
}

// NewAssembler creates an assembler over the catalog. gatewayURL is
// used to render archival gateway links.
func NewAssembler(cat *catalog.Catalog, gatewayURL string, log logger.Logger) *Assembler {
	return &Assembler{
		catalog:    cat,
		gatewayURL: gatewayURL,
		logger:     log,
	}
}

// Commit validates the review → commit transition, builds one resource
// per candidate, submits each individually (fail-soft per item) and
// destroys the session.
func (a *Assembler) Commit(ctx context.Context, session *Session) (*CommitReport, error) {
	if err := session.beginCommit(); err != nil {
		return nil, err
	}
	defer session.Cancel()

	candidates := session.Candidates()
	bulk := session.Bulk()
	plan := session.PlanSnapshot()
	report := &CommitReport{Items: make([]ItemResult, 0, len(candidates))}

	for i, candidate := range candidates {
		var resource *domain.Resource
		if session.Mode == ModeFile {
			resource = a.assembleFile(plan, i, candidate, bulk)
		} else {
			resource = a.assembleURL(candidate, bulk)
		}

		stored, err := a.catalog.Add(ctx, resource)
		if err != nil {
			a.logger.Warn("failed to submit resource, continuing with remaining candidates",
				logger.String("candidate", candidate.Value),
				logger.Error(err))
			report.Items = append(report.Items, ItemResult{Candidate: candidate.Value, Error: err.Error()})
			report.Failed++
			continue
		}

		report.Items = append(report.Items, ItemResult{Candidate: candidate.Value, ResourceID: stored.ID})
		report.Succeeded++
	}

	a.logger.Info("intake session committed",
		logger.String("session", session.ID),
		logger.Int("succeeded", report.Succeeded),
		logger.Int("failed", report.Failed))

	return report, nil
}

// assembleFile builds an internal resource for one file candidate.
// Archival records come only from candidates that were both selected
// and uploaded successfully; a selected-but-failed upload yields zero
// archival records, not an error resource.
func (a *Assembler) assembleFile(plan *archive.Plan, index int, candidate Candidate, bulk BulkMetadata) *domain.Resource {
	now := time.Now()
	resource := &domain.Resource{
		Title:       firstNonEmpty(candidate.Title, bulk.Title, filepath.Base(candidate.Value)),
		Description: firstNonEmpty(candidate.Description, bulk.Description),
		Tags:        mergeTags(bulk.Tags, candidate.Tags),
		Kind:        domain.KindInternal,
		ContentHash: hashFile(candidate.Value),
		PrimaryLocation: domain.Location{
			Type:         domain.LocationFilePath,
			Value:        candidate.Value,
			Accessible:   true,
			LastVerified: now,
		},
	}

	if plan != nil {
		if result, ok := plan.UploadResults[index]; ok && result.Success {
			resource.AppendArchivalRecord(domain.ArchivalRecord{
				Hash:      result.TransactionID,
				Timestamp: now,
				Link:      archive.GatewayLink(a.gatewayURL, result.TransactionID),
				Tags:      result.Tags,
			})
		}
	}

	return resource
}

// assembleURL builds an external resource for one URL candidate.
func (a *Assembler) assembleURL(candidate Candidate, bulk BulkMetadata) *domain.Resource {
	return &domain.Resource{
		Title:       firstNonEmpty(candidate.Title, bulk.Title, candidate.Value),
		Description: firstNonEmpty(candidate.Description, bulk.Description),
		Tags:        mergeTags(baselineURLTags, bulk.Tags),
		Kind:        domain.KindExternal,
		ContentHash: hashString(candidate.Value),
		PrimaryLocation: domain.Location{
			Type:         domain.LocationHTTPURL,
			Value:        candidate.Value,
			Accessible:   candidate.ProcessingError == "",
			LastVerified: time.Now(),
		},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// mergeTags concatenates tag lists, dropping duplicates while keeping
// first-seen order.
func mergeTags(lists ...[]string) []string {
	seen := make(map[string]bool)
	merged := []string{}
	for _, list := range lists {
		for _, tag := range list {
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			merged = append(merged, tag)
		}
	}
	return merged
}

// hashFile fingerprints a file's content. Best effort: an unreadable
// file yields an empty hash, duplicate detection is upstream's concern.
func hashFile(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer utils.Close(f)

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))
}

func hashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}
