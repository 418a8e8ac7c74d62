package indicator

import (
	"github.com/dnldd/chartfeed/shared"
)

const (
	// DefaultRSIPeriod is the default wilder rsi lookback period.
	DefaultRSIPeriod = 14
	// zeroLossRS is the relative strength used when there are no losses to average.
	zeroLossRS = 100
)

// rsiFromAverages computes the rsi value for the provided average gain and loss.
func rsiFromAverages(avgGain float64, avgLoss float64) float64 {
	rs := float64(zeroLossRS)
	if avgLoss != 0 {
		rs = avgGain / avgLoss
	}

	return 100 - 100/(1+rs)
}

// RSI computes the wilder relative strength index over the closes of the provided bars.
//
// Bars before the period has elapsed use the simple mean of the changes seen so far, so
// early bars still carry a value. The first bar copies the value of the second.
func RSI(bars []shared.CandleBar, period int) []shared.OscillatorPoint {
	if period <= 0 {
		period = DefaultRSIPeriod
	}
	if len(bars) < 2 {
		return nil
	}

	values := make([]float64, len(bars))

	var sumGain, sumLoss float64
	var avgGain, avgLoss float64
	for i := 1; i < len(bars); i++ {
		change := bars[i].Close - bars[i-1].Close

		var gain, loss float64
		switch {
		case change > 0:
			gain = change
		case change < 0:
			loss = -change
		}

		if i <= period {
			sumGain += gain
			sumLoss += loss
			avgGain = sumGain / float64(i)
			avgLoss = sumLoss / float64(i)
		} else {
			avgGain = (avgGain*float64(period-1) + gain) / float64(period)
			avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		}

		values[i] = shared.Round2(rsiFromAverages(avgGain, avgLoss))
	}

	values[0] = values[1]

	points := make([]shared.OscillatorPoint, len(bars))
	for i := range bars {
		points[i] = shared.OscillatorPoint{Time: bars[i].Time, Value: values[i]}
	}

	return points
}

// VolumeDeltaRSI computes the rsi of the provided volume delta series. Gains and losses are
// smoothed with a null tolerant rma and bars without a defined average are omitted.
func VolumeDeltaRSI(points []shared.VolumeDeltaPoint, period int) []shared.OscillatorPoint {
	if period <= 0 {
		period = DefaultRSIPeriod
	}

	gains := make([]shared.Optional, len(points))
	losses := make([]shared.Optional, len(points))
	for i := range points {
		delta := points[i].Delta
		if !delta.Valid {
			continue
		}

		gains[i] = shared.Some(max(delta.Value, 0))
		losses[i] = shared.Some(max(-delta.Value, 0))
	}

	avgGains := RMA(gains, period)
	avgLosses := RMA(losses, period)

	rsi := make([]shared.OscillatorPoint, 0, len(points))
	for i := range points {
		if !avgGains[i].Valid || !avgLosses[i].Valid {
			continue
		}

		value := shared.Round2(rsiFromAverages(avgGains[i].Value, avgLosses[i].Value))
		rsi = append(rsi, shared.OscillatorPoint{Time: points[i].Time, Value: value})
	}

	return rsi
}
