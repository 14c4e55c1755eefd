package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuantLab/internal/domain/models"
)

const asset = "TEST"

func series(t *testing.T, prices ...float64) models.PriceSeries {
	t.Helper()
	dates := make([]time.Time, len(prices))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	s, err := models.NewSeries(dates, []string{asset}, map[string][]float64{asset: prices})
	require.NoError(t, err)
	return s
}

func wave(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 10*math.Sin(float64(i)/3) + float64(i)/4
	}
	return out
}

var smallParams = Params{Fast: 2, Slow: 5, Window: 4, Threshold: 1, Trend: 6, Mom: 3}

func TestBuyAndHoldScenario(t *testing.T) {
	curve, err := BuyAndHold(series(t, 100, 110, 121, 133.1))
	require.NoError(t, err)

	want := []float64{1.0, 1.1, 1.21, 1.331}
	got := curve.Column(asset)
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-9, "day %d", i)
	}
}

func TestBuyAndHoldTracksPriceRatio(t *testing.T) {
	p := wave(40)
	curve, err := BuyAndHold(series(t, p...))
	require.NoError(t, err)

	got := curve.Column(asset)
	assert.Equal(t, 1.0, got[0])
	for i := range p {
		assert.InDelta(t, p[i]/p[0], got[i], 1e-9, "day %d", i)
	}
}

func TestEmptyPricesRejected(t *testing.T) {
	for _, k := range Kinds {
		t.Run(string(k), func(t *testing.T) {
			_, err := Run(k, models.PriceSeries{}, smallParams)
			assert.ErrorIs(t, err, models.ErrEmptyPrices)
			assert.True(t, models.IsInputError(err))
		})
	}
}

func TestInvalidWindowRejected(t *testing.T) {
	_, err := Momentum(series(t, 1, 2, 3), 0, 3)
	assert.ErrorIs(t, err, models.ErrInvalidWindow)
	_, err = MeanReversion(series(t, 1, 2, 3), -1, 2)
	assert.ErrorIs(t, err, models.ErrInvalidWindow)
}

func TestUnknownKind(t *testing.T) {
	_, err := ParseKind("martingale")
	assert.ErrorIs(t, err, models.ErrUnknownStrategy)
	k, err := ParseKind("momentum")
	require.NoError(t, err)
	assert.Equal(t, KindMomentum, k)
}

func TestMomentumFlipScenario(t *testing.T) {
	sig, err := MomentumSignal(series(t, 10, 10, 10, 10, 20, 20, 20), 2, 3)
	require.NoError(t, err)
	// fast [_,10,10,10,15,20,20] vs slow [_,_,10,10,13.3,16.7,20]
	assert.Equal(t, []float64{0, 0, 0, 0, 1, 1, 0}, sig.Column(asset))
}

func TestMomentumAppliesSignalNextDay(t *testing.T) {
	curve, err := Momentum(series(t, 10, 10, 10, 10, 20, 22, 24), 2, 3)
	require.NoError(t, err)

	got := curve.Column(asset)
	// the jump on day 4 is not captured: the signal it produces is applied from day 5
	for i := 0; i < 5; i++ {
		assert.InDelta(t, 1.0, got[i], 1e-12, "day %d", i)
	}
	assert.InDelta(t, 1.1, got[5], 1e-9)
	assert.InDelta(t, 1.2, got[6], 1e-9)
}

func TestMomentumScaleInvariant(t *testing.T) {
	p := wave(60)
	base, err := MomentumSignal(series(t, p...), 3, 8)
	require.NoError(t, err)

	for _, k := range []float64{2, 0.25, 1024} {
		scaled := make([]float64, len(p))
		for i := range p {
			scaled[i] = p[i] * k
		}
		sig, err := MomentumSignal(series(t, scaled...), 3, 8)
		require.NoError(t, err)
		assert.Equal(t, base.Column(asset), sig.Column(asset), "scale %v", k)
	}
}

func TestWindowLongerThanHistoryIsFlat(t *testing.T) {
	prices := series(t, 10, 11, 12, 11)
	long := Params{Fast: 10, Slow: 20, Window: 10, Threshold: 2, Trend: 50, Mom: 30}
	for _, k := range []Kind{KindMomentum, KindMeanReversion} {
		sig, err := Signal(k, prices, long)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0, 0, 0}, sig.Column(asset), string(k))

		curve, err := Run(k, prices, long)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 1, 1, 1}, curve.Column(asset), string(k))
	}
}

func TestNoLookAhead(t *testing.T) {
	p := wave(50)
	for _, k := range Kinds {
		for _, day := range []int{10, 25, 49} {
			bumped := append([]float64(nil), p...)
			bumped[day] *= 1.5

			a, err := Signal(k, series(t, p...), smallParams)
			require.NoError(t, err)
			b, err := Signal(k, series(t, bumped...), smallParams)
			require.NoError(t, err)

			// the position realized on `day` is the signal of day-1
			assert.Equal(t, a.Column(asset)[:day], b.Column(asset)[:day], "%s perturbed at %d", k, day)

			ca, err := Run(k, series(t, p...), smallParams)
			require.NoError(t, err)
			cb, err := Run(k, series(t, bumped...), smallParams)
			require.NoError(t, err)
			assert.Equal(t, ca.Column(asset)[:day], cb.Column(asset)[:day])
		}
	}
}

func TestMeanReversionHoldScan(t *testing.T) {
	nan := math.NaN()
	z := []float64{nan, 0.5, -1.5, -0.5, -0.9, nan, -0.2, 0.1, -0.5, -3}
	got := holdScan(z, 1)
	assert.Equal(t, []float64{0, 0, 1, 1, 1, 1, 1, 0, 0, 1}, got)
}

func TestMeanReversionHoldsUntilMean(t *testing.T) {
	// z: day2 -0.58 (no trigger), day3 -1.14 (enter), day4 -0.41 (hold), day5 +1 (exit)
	sig, err := MeanReversionSignal(series(t, 10, 10.5, 10, 7, 7.5, 8, 11), 3, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 1, 1, 0, 0}, sig.Column(asset))
}

func TestMeanReversionZeroDeviationHolds(t *testing.T) {
	// flat prices have an undefined z-score and never trigger
	sig, err := MeanReversionSignal(series(t, 5, 5, 5, 5, 5), 2, 0.5)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, sig.Column(asset))
}

func TestRegimeSwitchingBullUsesMomentum(t *testing.T) {
	rising := series(t, 1, 2, 3, 4, 5, 6, 7, 8)
	sig, err := RegimeSwitchingSignal(rising, 3, 2, 3, 0.5)
	require.NoError(t, err)

	mr, err := MeanReversionSignal(rising, 3, 0.5)
	require.NoError(t, err)
	// mean reversion never enters on a rising path, so every 1 comes from momentum
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0, 0, 0}, mr.Column(asset))
	assert.Equal(t, []float64{0, 0, 1, 1, 1, 1, 1, 1}, sig.Column(asset))
}

func TestRegimeSwitchingBearUsesMeanReversion(t *testing.T) {
	falling := series(t, 10, 9, 8, 7, 6, 5, 4, 3)
	sig, err := RegimeSwitchingSignal(falling, 3, 2, 3, 0.5)
	require.NoError(t, err)

	mom, err := MomentumSignal(falling, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0, 0, 0}, mom.Column(asset))
	// z is exactly -1 from day 2 on, below -0.5
	assert.Equal(t, []float64{0, 0, 1, 1, 1, 1, 1, 1}, sig.Column(asset))
}

func TestRegimeSwitchingSelectsPerDay(t *testing.T) {
	prices := series(t, wave(80)...)
	p := smallParams

	sig, err := RegimeSwitchingSignal(prices, p.Trend, p.Mom, p.Window, p.Threshold)
	require.NoError(t, err)
	regimes, err := Regimes(prices, p.Trend)
	require.NoError(t, err)
	mom, err := MomentumSignal(prices, 1, p.Mom)
	require.NoError(t, err)
	mr, err := MeanReversionSignal(prices, p.Window, p.Threshold)
	require.NoError(t, err)

	bull := regimes[asset]
	var sawBull, sawBear bool
	for i, v := range sig.Column(asset) {
		if bull[i] {
			sawBull = true
			assert.Equal(t, mom.Column(asset)[i], v, "bull day %d", i)
		} else {
			sawBear = true
			assert.Equal(t, mr.Column(asset)[i], v, "bear day %d", i)
		}
	}
	assert.True(t, sawBull && sawBear, "path should visit both regimes")
}

func TestCompoundTreatsMissingAsFlat(t *testing.T) {
	prices := series(t, 100, math.NaN(), 110, 121)
	sig := prices.Map(func(_ string, p []float64) []float64 {
		return []float64{1, 1, math.NaN(), 1}
	})
	curve, err := Compound(prices, sig)
	require.NoError(t, err)
	got := curve.Column(asset)
	// day1 and day2 returns are undefined, day3 position comes from a NaN signal
	assert.Equal(t, []float64{1, 1, 1, 1}, got)
}

func TestCompoundMisaligned(t *testing.T) {
	prices := series(t, 1, 2, 3)
	_, err := Compound(prices, series(t, 1, 1))
	assert.ErrorIs(t, err, models.ErrMisaligned)
}

func TestParamsDefaults(t *testing.T) {
	p := Params{Fast: 5}.WithDefaults(smallParams)
	assert.Equal(t, 5, p.Fast)
	assert.Equal(t, smallParams.Slow, p.Slow)
	assert.Equal(t, map[string]float64{"fast": 5, "slow": 5}, p.For(KindMomentum))
	assert.Nil(t, p.For(KindBuyAndHold))
}

func TestParamsExplicitZeroThreshold(t *testing.T) {
	assert.Equal(t, smallParams.Threshold, Params{}.WithDefaults(smallParams).Threshold)

	p := Params{ThresholdSet: true}.WithDefaults(smallParams)
	assert.Equal(t, 0.0, p.Threshold)
	assert.Equal(t, smallParams.Window, p.Window)
	assert.Equal(t, map[string]float64{"window": float64(smallParams.Window), "threshold": 0}, p.For(KindMeanReversion))
}
