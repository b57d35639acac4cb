package aggregator

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"roomsense/internal/models"
)

const (
	defaultFetchTimeout = 15 * time.Second
	defaultConcurrency  = 16
)

// EnvFetcher fetches one environmental-cloud sensor bundle.
type EnvFetcher interface {
	FetchSensor(ctx context.Context, ref models.SensorRef) (models.SensorBundle, error)
}

// HubFetcher fetches hub-cloud bundles for many devices in one batched query.
type HubFetcher interface {
	FetchBatch(ctx context.Context, refs []models.SensorRef) ([]models.SensorBundle, error)
}

// Aggregator fans out to both providers and collects whatever answered. One
// sensor failing never drops or delays the others: a dashboard with 200
// sensors must render the 190 that responded.
type Aggregator struct {
	env         EnvFetcher
	hub         HubFetcher
	timeout     time.Duration
	concurrency int
	logger      *zap.Logger
}

// New returns an aggregator with default per-fetch timeout and fan-out limit.
func New(env EnvFetcher, hub HubFetcher, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		env:         env,
		hub:         hub,
		timeout:     defaultFetchTimeout,
		concurrency: defaultConcurrency,
		logger:      logger,
	}
}

// FetchMany fetches bundles for every referenced sensor concurrently and
// returns the successful subset in no guaranteed order. Environmental sensors
// fan out one task each; hub devices share one batched query. Failures are
// logged and skipped, never escalated.
func (a *Aggregator) FetchMany(ctx context.Context, refs []models.SensorRef) []models.SensorBundle {
	if len(refs) == 0 {
		return nil
	}

	var envRefs, hubRefs []models.SensorRef
	for _, ref := range refs {
		if ref.Provider == models.ProviderHubCloud {
			hubRefs = append(hubRefs, ref)
		} else {
			envRefs = append(envRefs, ref)
		}
	}

	var (
		mu      sync.Mutex
		bundles []models.SensorBundle
	)
	collect := func(items ...models.SensorBundle) {
		mu.Lock()
		bundles = append(bundles, items...)
		mu.Unlock()
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(a.concurrency)

	for _, ref := range envRefs {
		ref := ref
		group.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(groupCtx, a.timeout)
			defer cancel()

			bundle, err := a.env.FetchSensor(fetchCtx, ref)
			if err != nil {
				a.logger.Warn("sensor fetch failed",
					zap.String("sensor", ref.ExternalID), zap.Error(err))
				return nil
			}
			collect(bundle)
			return nil
		})
	}

	if len(hubRefs) > 0 {
		group.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(groupCtx, a.timeout)
			defer cancel()

			batch, err := a.hub.FetchBatch(fetchCtx, hubRefs)
			if err != nil {
				a.logger.Warn("hub batch fetch failed",
					zap.Int("devices", len(hubRefs)), zap.Error(err))
				return nil
			}
			collect(batch...)
			return nil
		})
	}

	// Workers never return errors; Wait only joins them.
	_ = group.Wait()
	return bundles
}
