package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/goa-eco-guard/eco-guard/internal/models"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	activeReportsKey = "reports:active"
	// activeVersionKey is bumped on every write; a fill only lands if it is unchanged
	activeVersionKey = "reports:active:version"
)

var errStaleFill = errors.New("active reports changed during cache fill")

// CachedReportStore keeps the active-report list in Redis in front of another ReportStore.
// Redis failures are logged and the wrapped store is used instead.
type CachedReportStore struct {
	ReportStore
	client *goredis.Client
	ttl    time.Duration
}

// Ensure CachedReportStore implements ReportStore
var _ ReportStore = (*CachedReportStore)(nil)

// NewCachedReportStore wraps store with a Redis-backed active list cache
func NewCachedReportStore(store ReportStore, client *goredis.Client, ttl time.Duration) *CachedReportStore {
	return &CachedReportStore{
		ReportStore: store,
		client:      client,
		ttl:         ttl,
	}
}

// NewRedisClient creates a client and checks the connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

// ListActive serves the cached list when present and refills it otherwise
func (c *CachedReportStore) ListActive(ctx context.Context) ([]models.Report, error) {
	data, err := c.client.Get(ctx, activeReportsKey).Bytes()
	switch {
	case err == nil:
		var reports []models.Report
		if err := json.Unmarshal(data, &reports); err == nil {
			return reports, nil
		}
		logrus.Warn("Discarding unreadable active reports cache entry")
	case errors.Is(err, goredis.Nil):
	default:
		logrus.Warnf("Active reports cache read failed: %v", err)
	}

	version, err := c.version(ctx)
	if err != nil {
		logrus.Debugf("Active reports cache version read failed: %v", err)
	}

	reports, err := c.ReportStore.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	if version >= 0 {
		c.fill(ctx, version, reports)
	}

	return reports, nil
}

func (c *CachedReportStore) version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, activeVersionKey).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return -1, err
	}
	return v, nil
}

// fill stores reports unless a write bumped the version after it was read
func (c *CachedReportStore) fill(ctx context.Context, version int64, reports []models.Report) {
	b, err := json.Marshal(reports)
	if err != nil {
		return
	}

	err = c.client.Watch(ctx, func(tx *goredis.Tx) error {
		current, err := tx.Get(ctx, activeVersionKey).Int64()
		if errors.Is(err, goredis.Nil) {
			current = 0
		} else if err != nil {
			return err
		}
		if current != version {
			return errStaleFill
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, activeReportsKey, b, c.ttl)
			return nil
		})
		return err
	}, activeVersionKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleFill), errors.Is(err, goredis.TxFailedErr):
		logrus.Debug("Skipped active reports cache fill after a concurrent write")
	default:
		logrus.Debugf("Active reports cache write failed: %v", err)
	}
}

// Insert writes through and invalidates the cached list
func (c *CachedReportStore) Insert(ctx context.Context, report *models.Report) error {
	if err := c.ReportStore.Insert(ctx, report); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// SoftDelete writes through and invalidates the cached list
func (c *CachedReportStore) SoftDelete(ctx context.Context, id string) error {
	if err := c.ReportStore.SoftDelete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *CachedReportStore) invalidate(ctx context.Context) {
	_, err := c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Incr(ctx, activeVersionKey)
		pipe.Del(ctx, activeReportsKey)
		return nil
	})
	if err != nil {
		logrus.Warnf("Active reports cache invalidation failed: %v", err)
	}
}
