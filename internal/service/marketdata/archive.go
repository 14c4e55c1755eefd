package marketdata

import (
	"context"
	"time"

	"QuantLab/internal/domain/models"
	drepo "QuantLab/internal/domain/repository"
	"QuantLab/pkg/logger"
)

// ArchiveProvider writes every successful single-ticker fetch to a local
// archive and answers from it when the upstream fails.
type ArchiveProvider struct {
	next    drepo.PriceProvider
	archive drepo.PriceArchive
	log     *logger.Logger
}

func NewArchiveProvider(next drepo.PriceProvider, archive drepo.PriceArchive, l *logger.Logger) *ArchiveProvider {
	if l == nil {
		l = logger.Nop()
	}
	return &ArchiveProvider{next: next, archive: archive, log: l}
}

func (p *ArchiveProvider) GetPrice(ctx context.Context, ticker string, start, end time.Time) (models.PriceSeries, error) {
	s, err := p.next.GetPrice(ctx, ticker, start, end)
	if err == nil {
		if !s.Empty() {
			if serr := p.archive.Store(ctx, ticker, s); serr != nil {
				p.log.Warn("archive store failed", logger.String("ticker", ticker), logger.Error(serr))
			}
		}
		return s, nil
	}

	archived, aerr := p.archive.Load(ctx, ticker, start, end)
	if aerr != nil || archived.Empty() {
		return s, err
	}
	p.log.Warn("upstream failed, serving archived prices",
		logger.String("ticker", ticker), logger.Int("rows", archived.Len()), logger.Error(err))
	return archived, nil
}

// GetMultiAssetData falls back to joining archived closes per ticker. The
// archive keeps unadjusted closes, so dividends are not reflected there.
func (p *ArchiveProvider) GetMultiAssetData(ctx context.Context, tickers []string, start, end time.Time) (models.PriceSeries, error) {
	s, err := p.next.GetMultiAssetData(ctx, tickers, start, end)
	if err == nil {
		return s, nil
	}

	parts := make(map[string]models.PriceSeries, len(tickers))
	order := make([]string, 0, len(tickers))
	for _, t := range tickers {
		a, aerr := p.archive.Load(ctx, t, start, end)
		if aerr != nil || a.Empty() {
			continue
		}
		parts[t] = a
		order = append(order, t)
	}
	if len(order) == 0 {
		return s, err
	}
	p.log.Warn("upstream failed, serving archived prices",
		logger.Strings("tickers", order), logger.Error(err))
	return OuterJoin(order, parts)
}
