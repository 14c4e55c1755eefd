package strategy

import (
	"fmt"

	"QuantLab/internal/domain/models"
)

type Kind string

const (
	KindBuyAndHold      Kind = "buy_and_hold"
	KindMomentum        Kind = "momentum"
	KindMeanReversion   Kind = "mean_reversion"
	KindRegimeSwitching Kind = "regime_switching"
)

// Kinds lists every strategy in display order.
var Kinds = []Kind{KindBuyAndHold, KindMomentum, KindMeanReversion, KindRegimeSwitching}

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", models.ErrUnknownStrategy, s)
}

// Params carries the numeric parameters of every strategy. Zero fields are
// filled from defaults by WithDefaults, except a Threshold marked with
// ThresholdSet, which is kept even when zero.
type Params struct {
	Fast      int     // momentum fast window
	Slow      int     // momentum slow window
	Window    int     // mean-reversion window
	Threshold float64 // mean-reversion entry threshold in standard deviations
	Trend     int     // regime trend window
	Mom       int     // regime momentum window

	ThresholdSet bool
}

func (p Params) WithDefaults(d Params) Params {
	if p.Fast == 0 {
		p.Fast = d.Fast
	}
	if p.Slow == 0 {
		p.Slow = d.Slow
	}
	if p.Window == 0 {
		p.Window = d.Window
	}
	if p.Threshold == 0 && !p.ThresholdSet {
		p.Threshold = d.Threshold
	}
	if p.Trend == 0 {
		p.Trend = d.Trend
	}
	if p.Mom == 0 {
		p.Mom = d.Mom
	}
	return p
}

// For returns only the parameters the given strategy reads.
func (p Params) For(k Kind) map[string]float64 {
	switch k {
	case KindMomentum:
		return map[string]float64{"fast": float64(p.Fast), "slow": float64(p.Slow)}
	case KindMeanReversion:
		return map[string]float64{"window": float64(p.Window), "threshold": p.Threshold}
	case KindRegimeSwitching:
		return map[string]float64{
			"trend":     float64(p.Trend),
			"mom":       float64(p.Mom),
			"window":    float64(p.Window),
			"threshold": p.Threshold,
		}
	}
	return nil
}

// Signal dispatches to the generator for k.
func Signal(k Kind, prices models.PriceSeries, p Params) (models.Signal, error) {
	switch k {
	case KindBuyAndHold:
		return BuyAndHoldSignal(prices)
	case KindMomentum:
		return MomentumSignal(prices, p.Fast, p.Slow)
	case KindMeanReversion:
		return MeanReversionSignal(prices, p.Window, p.Threshold)
	case KindRegimeSwitching:
		return RegimeSwitchingSignal(prices, p.Trend, p.Mom, p.Window, p.Threshold)
	}
	return models.Signal{}, fmt.Errorf("%w: %q", models.ErrUnknownStrategy, k)
}

// Run generates the signal for k and compounds it.
func Run(k Kind, prices models.PriceSeries, p Params) (models.ValueCurve, error) {
	sig, err := Signal(k, prices, p)
	if err != nil {
		return models.ValueCurve{}, err
	}
	return Compound(prices, sig)
}
