package indicator

import (
	"sort"

	"github.com/dnldd/chartfeed/shared"
)

// Directions assigns a direction to each of the provided bars, which must be in time order.
//
// A bar with a body takes its body's direction. A flat bar compares its close to the previous
// bar's close and keeps the previous direction when they match.
func Directions(bars []shared.CandleBar) []shared.Sentiment {
	directions := make([]shared.Sentiment, len(bars))

	prev := shared.Neutral
	for i := range bars {
		dir := bars[i].FetchSentiment()
		if dir == shared.Neutral && i > 0 {
			switch {
			case bars[i].Close > bars[i-1].Close:
				dir = shared.Bullish
			case bars[i].Close < bars[i-1].Close:
				dir = shared.Bearish
			default:
				dir = prev
			}
		}

		directions[i] = dir
		prev = dir
	}

	return directions
}

// signedVolume returns the volume of a bar signed by its direction.
func signedVolume(volume float64, dir shared.Sentiment) float64 {
	switch dir {
	case shared.Bullish:
		return volume
	case shared.Bearish:
		return -volume
	default:
		return 0
	}
}

// VolumeDelta maps the fine bars onto the parent bar grid and sums their signed volume per
// parent bar. A parent bar's window is [time, time+parentSeconds). Parent bars without fine
// bars in their window carry no delta.
func VolumeDelta(parents []shared.CandleBar, fine []shared.CandleBar, parentSeconds int64) []shared.VolumeDeltaPoint {
	ordered := make([]shared.CandleBar, len(fine))
	copy(ordered, fine)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Time < ordered[j].Time })

	// Directions are resolved over the whole fine stream so flat bars at a parent boundary
	// inherit the direction of the bar before them.
	directions := Directions(ordered)

	points := make([]shared.VolumeDeltaPoint, len(parents))
	for idx := range parents {
		start := parents[idx].Time
		end := start + parentSeconds

		points[idx].Time = start

		first := sort.Search(len(ordered), func(i int) bool { return ordered[i].Time >= start })

		var delta float64
		var matched bool
		for i := first; i < len(ordered) && ordered[i].Time < end; i++ {
			delta += signedVolume(ordered[i].Volume, directions[i])
			matched = true
		}

		if matched {
			points[idx].Delta = shared.Some(delta)
		}
	}

	return points
}
