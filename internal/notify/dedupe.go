package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// dedupeTTL keeps dedupe keys a little over a day, long enough to absorb a
// double-fired daily schedule without growing unbounded.
const dedupeTTL = 36 * time.Hour

// ScanGuard prevents the same expiration alert going out twice in one day and
// lets a whole scan run claim a per-date advisory lock.
type ScanGuard struct {
	client *redis.Client
}

// NewScanGuard creates a guard on the given redis client.
func NewScanGuard(client *redis.Client) *ScanGuard {
	return &ScanGuard{client: client}
}

// ClaimAlert marks subscriber+date as notified and reports whether this call
// won the claim. The scan's exact-date match already bounds alerts to one day
// per cycle; the claim closes the remaining window where a double-fired
// scheduler re-runs the same scan within that day.
func (g *ScanGuard) ClaimAlert(ctx context.Context, subscriberID uint64, date time.Time) (bool, error) {
	key := fmt.Sprintf("expiry-alert:%d:%s", subscriberID, date.Format("2006-01-02"))
	return g.client.SetNX(ctx, key, 1, dedupeTTL).Result()
}

// ClaimScan takes the per-date advisory lock for a whole scan run.
func (g *ScanGuard) ClaimScan(ctx context.Context, date time.Time) (bool, error) {
	key := "expiration-scan:" + date.Format("2006-01-02")
	return g.client.SetNX(ctx, key, 1, dedupeTTL).Result()
}
