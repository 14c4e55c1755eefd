package marketdata

import (
	"context"
	"errors"
	"strings"
	"time"

	"QuantLab/internal/domain/models"
	drepo "QuantLab/internal/domain/repository"
	"QuantLab/pkg/cache"
	"QuantLab/pkg/logger"
	"QuantLab/pkg/util"
)

const pricesPrefix = "prices"

// CachedProvider memoizes price lookups by (tickers, start, end) for a TTL.
// Empty results are not cached so a transient miss is retried next time.
type CachedProvider struct {
	next    drepo.PriceProvider
	cache   cache.Service
	ttl     time.Duration
	metrics drepo.Metrics
	log     *logger.Logger
}

func NewCachedProvider(next drepo.PriceProvider, c cache.Service, ttl time.Duration, m drepo.Metrics, l *logger.Logger) *CachedProvider {
	if l == nil {
		l = logger.Nop()
	}
	return &CachedProvider{next: next, cache: c, ttl: ttl, metrics: m, log: l}
}

func (p *CachedProvider) GetPrice(ctx context.Context, ticker string, start, end time.Time) (models.PriceSeries, error) {
	key := priceKey("close", ticker, start, end)
	return p.load(ctx, key, func() (models.PriceSeries, error) {
		return p.next.GetPrice(ctx, ticker, start, end)
	})
}

func (p *CachedProvider) GetMultiAssetData(ctx context.Context, tickers []string, start, end time.Time) (models.PriceSeries, error) {
	key := priceKey("adj", strings.Join(tickers, ","), start, end)
	return p.load(ctx, key, func() (models.PriceSeries, error) {
		return p.next.GetMultiAssetData(ctx, tickers, start, end)
	})
}

// Invalidate drops every cached price entry.
func (p *CachedProvider) Invalidate(ctx context.Context) error {
	return p.cache.DeleteByPattern(ctx, cache.BuildPattern(pricesPrefix+":"))
}

func (p *CachedProvider) load(ctx context.Context, key string, fetch func() (models.PriceSeries, error)) (models.PriceSeries, error) {
	var s models.PriceSeries
	err := p.cache.Get(ctx, key, &s)
	if err == nil {
		p.record("hit")
		return s, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		p.log.Warn("price cache read failed", logger.String("key", key), logger.Error(err))
	}
	p.record("miss")

	s, err = fetch()
	if err != nil || s.Empty() {
		return s, err
	}
	if err := p.cache.Set(ctx, key, s, p.ttl); err != nil {
		p.log.Warn("price cache write failed", logger.String("key", key), logger.Error(err))
	}
	return s, nil
}

func (p *CachedProvider) record(result string) {
	if p.metrics != nil {
		p.metrics.RecordCache(result)
	}
}

func priceKey(kind, tickers string, start, end time.Time) string {
	return cache.GenerateKeyWithParams(pricesPrefix, kind, tickers, util.FormatDate(start), util.FormatDate(end))
}
