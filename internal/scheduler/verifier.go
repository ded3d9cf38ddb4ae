package scheduler

import (
	"context"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/keepdeck/keep/internal/catalog"
	"github.com/keepdeck/keep/internal/domain"
	"github.com/keepdeck/keep/internal/logger"
)

// LocationVerifier periodically checks that every resource's primary
// location is still reachable and records the outcome on the resource.
type LocationVerifier struct {
	catalog       *catalog.Catalog
	http          *resty.Client
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewLocationVerifier creates a new location verifier.
func NewLocationVerifier(
	cat *catalog.Catalog,
	log logger.Logger,
	interval time.Duration,
	httpTimeout time.Duration,
	manualTrigger chan struct{},
) *LocationVerifier {
	client := resty.New().
		SetTimeout(httpTimeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))

	return &LocationVerifier{
		catalog:       cat,
		http:          client,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start begins the periodic verification process.
func (lv *LocationVerifier) Start(ctx context.Context) {
	ticker := time.NewTicker(lv.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				lv.VerifyAll(ctx)
			case <-lv.manualTrigger:
				lv.logger.Info("manual location verification triggered")
				lv.VerifyAll(ctx)
			case <-lv.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the verifier.
func (lv *LocationVerifier) Stop() {
	close(lv.stopCh)
}

// VerifyAll checks every resource's primary location and persists
// changed outcomes. One failing resource never blocks the rest.
func (lv *LocationVerifier) VerifyAll(ctx context.Context) {
	resources := lv.catalog.All()
	lv.logger.Info("verifying resource locations",
		logger.Int("resources", len(resources)))

	var checked, unreachable int
	for _, r := range resources {
		if ctx.Err() != nil {
			return
		}

		accessible := lv.checkLocation(ctx, r.PrimaryLocation)
		checked++
		if !accessible {
			unreachable++
		}

		if accessible == r.PrimaryLocation.Accessible && !r.PrimaryLocation.LastVerified.IsZero() {
			// Unchanged outcome: refresh the timestamp lazily on the
			// next state flip instead of rewriting every resource.
			continue
		}

		updated := *r
		updated.PrimaryLocation.Accessible = accessible
		updated.PrimaryLocation.LastVerified = time.Now()
		if err := lv.catalog.Update(ctx, &updated); err != nil {
			lv.logger.Warn("failed to persist verification result",
				logger.String("resource_id", r.ID),
				logger.Error(err))
		}
	}

	lv.logger.Info("location verification finished",
		logger.Int("checked", checked),
		logger.Int("unreachable", unreachable))
}

func (lv *LocationVerifier) checkLocation(ctx context.Context, loc domain.Location) bool {
	switch loc.Type {
	case domain.LocationFilePath:
		_, err := os.Stat(loc.Value)
		return err == nil
	case domain.LocationHTTPURL:
		resp, err := lv.http.R().SetContext(ctx).Head(loc.Value)
		if err != nil {
			return false
		}
		return resp.StatusCode() < 400
	default:
		return false
	}
}
