package datasource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"RegimeCast/internal/domain/models"
	domrepo "RegimeCast/internal/domain/repository"
	"RegimeCast/pkg/cache"
	applogger "RegimeCast/pkg/logger"
)

type cachedEntry struct {
	Series   models.TimeSeries `json:"series"`
	SourceID string            `json:"source_id"`
}

// Cached decorates a DataSource with a read-through cache. A short lock lease
// around the inner fetch keeps concurrent requests for the same reference from
// stampeding the backend; a request that loses the lease falls through to the
// backend rather than waiting.
type Cached struct {
	inner   domrepo.DataSource
	cache   cache.Service
	ttl     time.Duration
	lockTTL time.Duration
	l       *applogger.Logger
}

func NewCached(inner domrepo.DataSource, c cache.Service, ttl, lockTTL time.Duration) *Cached {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if lockTTL <= 0 {
		lockTTL = 5 * time.Second
	}
	return &Cached{inner: inner, cache: c, ttl: ttl, lockTTL: lockTTL}
}

// SetLogger injects a structured logger.
func (c *Cached) SetLogger(l *applogger.Logger) { c.l = l }

func (c *Cached) Fetch(ctx context.Context, ref string, asOf time.Time) (models.TimeSeries, string, error) {
	key := fmt.Sprintf("series:%s:%d", ref, asOf.Unix())

	var entry cachedEntry
	err := c.cache.Get(ctx, key, &entry)
	if err == nil {
		return entry.Series, entry.SourceID, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) && c.l != nil {
		c.l.Warn("series cache read error",
			applogger.String("ref", ref),
			applogger.Error(err),
		)
	}

	release, _, err := cache.Lease(ctx, c.cache, "fetch:"+key, c.lockTTL)
	if err != nil && c.l != nil {
		c.l.Warn("series fetch lease error",
			applogger.String("ref", ref),
			applogger.Error(err),
		)
	}
	defer release()

	series, sourceID, err := c.inner.Fetch(ctx, ref, asOf)
	if err != nil {
		return models.TimeSeries{}, "", err
	}

	entry = cachedEntry{Series: series, SourceID: sourceID}
	if err := c.cache.Set(ctx, key, entry, c.ttl); err != nil && c.l != nil {
		c.l.Warn("series cache write error",
			applogger.String("ref", ref),
			applogger.Error(err),
		)
	}
	return series, sourceID, nil
}

var _ domrepo.DataSource = (*Cached)(nil)
