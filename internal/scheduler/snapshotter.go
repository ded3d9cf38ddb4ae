package scheduler

import (
	"context"
	"time"

	"github.com/keepdeck/keep/internal/catalog"
	"github.com/keepdeck/keep/internal/export"
	"github.com/keepdeck/keep/internal/logger"
)

// Snapshotter periodically writes the catalog to a YAML snapshot file
// so the collection survives a lost Redis instance.
type Snapshotter struct {
	catalog       *catalog.Catalog
	path          string
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewSnapshotter creates a new snapshotter writing to path.
func NewSnapshotter(
	cat *catalog.Catalog,
	path string,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *Snapshotter {
	return &Snapshotter{
		catalog:       cat,
		path:          path,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start begins the periodic snapshot process.
func (s *Snapshotter) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.run()
			case <-s.manualTrigger:
				s.logger.Info("manual snapshot triggered")
				s.run()
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the snapshotter.
func (s *Snapshotter) Stop() {
	close(s.stopCh)
}

// Snapshot writes the current catalog to disk once.
func (s *Snapshotter) Snapshot() error {
	resources := s.catalog.All()
	if err := export.WriteSnapshot(s.path, resources); err != nil {
		return err
	}
	s.logger.Info("catalog snapshot written",
		logger.String("path", s.path),
		logger.Int("resources", len(resources)))
	return nil
}

func (s *Snapshotter) run() {
	if err := s.Snapshot(); err != nil {
		s.logger.Error("failed to write catalog snapshot",
			logger.Error(err))
	}
}
