package marketdata

import (
	"context"
	"math"
	"time"

	drepo "QuantLab/internal/domain/repository"
	"QuantLab/pkg/cache"
	"QuantLab/pkg/logger"
)

// RiskFreeProvider derives the annual risk-free rate from the 10-year
// treasury yield index, quoted in percent.
type RiskFreeProvider struct {
	prices   drepo.PriceProvider
	ticker   string
	fallback float64
	cache    cache.Service
	ttl      time.Duration
	log      *logger.Logger
	now      func() time.Time
}

// NewRiskFreeProvider returns a provider that answers fallback whenever the
// yield cannot be read. c may be nil to disable caching.
func NewRiskFreeProvider(prices drepo.PriceProvider, ticker string, fallback float64, c cache.Service, ttl time.Duration, l *logger.Logger) *RiskFreeProvider {
	if l == nil {
		l = logger.Nop()
	}
	return &RiskFreeProvider{
		prices:   prices,
		ticker:   ticker,
		fallback: fallback,
		cache:    c,
		ttl:      ttl,
		log:      l,
		now:      time.Now,
	}
}

// RiskFreeRate returns the last close of the yield index over the past five
// days divided by 100, or the configured fallback.
func (p *RiskFreeProvider) RiskFreeRate(ctx context.Context) float64 {
	key := cache.GenerateKey("rate", p.ticker)
	if p.cache != nil {
		var cached float64
		if err := p.cache.Get(ctx, key, &cached); err == nil {
			return cached
		}
	}

	end := p.now()
	prices, err := p.prices.GetPrice(ctx, p.ticker, end.AddDate(0, 0, -5), end)
	if err != nil {
		p.log.Warn("risk-free rate unavailable, using fallback",
			logger.String("ticker", p.ticker), logger.Float("fallback", p.fallback), logger.Error(err))
		return p.fallback
	}

	col := prices.Column(p.ticker)
	last := math.NaN()
	for i := len(col) - 1; i >= 0; i-- {
		if !math.IsNaN(col[i]) {
			last = col[i]
			break
		}
	}
	if math.IsNaN(last) {
		p.log.Warn("no recent risk-free quote, using fallback",
			logger.String("ticker", p.ticker), logger.Float("fallback", p.fallback))
		return p.fallback
	}

	r := last / 100
	if p.cache != nil {
		if err := p.cache.Set(ctx, key, r, p.ttl); err != nil {
			p.log.Debug("cache risk-free rate", logger.Error(err))
		}
	}
	return r
}

// StaticRate always answers the same rate.
type StaticRate float64

func (r StaticRate) RiskFreeRate(context.Context) float64 { return float64(r) }
