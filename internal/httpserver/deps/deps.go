package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/keepdeck/keep/internal/archive"
	"github.com/keepdeck/keep/internal/catalog"
	"github.com/keepdeck/keep/internal/intake"
	"github.com/keepdeck/keep/internal/logger"
	redisstore "github.com/keepdeck/keep/internal/store/redis"
)

type Deps struct {
	Logger          logger.Logger
	StartTime       time.Time
	Version         string
	Commit          string
	BuildDate       string
	GoVersion       string
	TimeNow         func() time.Time // for testing, defaults to time.Now
	RedisClient     *redis.Client    // Redis client connection
	Store           *redisstore.Store
	Catalog         *catalog.Catalog
	Manager         *intake.Manager
	ArchiveClient   archive.Client // nil when no wallet is configured
	GatewayURL      string         // permanent-storage gateway base URL
	SnapshotTrigger chan struct{}  // manual catalog snapshot (nil if snapshots disabled)
	VerifyTrigger   chan struct{}  // manual location verification
}
