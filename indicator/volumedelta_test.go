package indicator

import (
	"math"
	"testing"

	"github.com/dnldd/chartfeed/shared"
	"github.com/peterldowns/testy/assert"
)

const (
	parentStart   = int64(1751376600)
	parentSeconds = int64(3600)
	fineSeconds   = int64(300)
)

// fineBar creates a five minute bar n steps into the first parent window.
func fineBar(n int64, open, close, volume float64) shared.CandleBar {
	return shared.CandleBar{
		Time:   parentStart + n*fineSeconds,
		Open:   open,
		High:   math.Max(open, close),
		Low:    math.Min(open, close),
		Close:  close,
		Volume: volume,
	}
}

func parentBars(n int) []shared.CandleBar {
	bars := make([]shared.CandleBar, n)
	for idx := range bars {
		bars[idx] = shared.CandleBar{Time: parentStart + int64(idx)*parentSeconds}
	}
	return bars
}

func TestVolumeDeltaAllBullish(t *testing.T) {
	fine := []shared.CandleBar{
		fineBar(0, 10, 11, 100),
		fineBar(1, 11, 12, 250),
		fineBar(2, 12, 12.5, 50),
	}

	// Ensure an all bullish window sums to its total volume.
	points := VolumeDelta(parentBars(1), fine, parentSeconds)
	assert.Equal(t, len(points), 1)
	assert.True(t, points[0].Delta.Valid)
	assert.Equal(t, points[0].Delta.Value, float64(400))
	assert.Equal(t, points[0].Time, parentStart)
}

func TestVolumeDeltaMixed(t *testing.T) {
	fine := []shared.CandleBar{
		fineBar(0, 10, 11, 100),
		fineBar(1, 11, 10, 300),
		fineBar(2, 10, 10.5, 50),
	}

	// Ensure a mixed window nets out and is bounded by the total volume.
	points := VolumeDelta(parentBars(1), fine, parentSeconds)
	assert.Equal(t, points[0].Delta.Value, float64(-150))
	assert.LessThanOrEqual(t, math.Abs(points[0].Delta.Value), float64(450))
}

func TestVolumeDeltaFlatBars(t *testing.T) {
	tests := []struct {
		name string
		fine []shared.CandleBar
		want float64
	}{
		{
			name: "flats inherit a bullish direction",
			fine: []shared.CandleBar{
				fineBar(0, 1, 2, 10),
				fineBar(1, 2, 2, 5),
				fineBar(2, 2, 2, 7),
			},
			want: 22,
		},
		{
			name: "flats inherit a bearish direction",
			fine: []shared.CandleBar{
				fineBar(0, 2, 1, 10),
				fineBar(1, 1, 1, 5),
				fineBar(2, 1, 1, 7),
			},
			want: -22,
		},
		{
			name: "flat above the previous close is bullish",
			fine: []shared.CandleBar{
				fineBar(0, 2, 1, 10),
				fineBar(1, 3, 3, 5),
			},
			want: -5,
		},
		{
			name: "flat below the previous close is bearish",
			fine: []shared.CandleBar{
				fineBar(0, 1, 2, 10),
				fineBar(1, 1.5, 1.5, 4),
			},
			want: 6,
		},
		{
			name: "leading flat has no direction",
			fine: []shared.CandleBar{
				fineBar(0, 1, 1, 10),
			},
			want: 0,
		},
	}

	for _, test := range tests {
		points := VolumeDelta(parentBars(1), test.fine, parentSeconds)
		if !points[0].Delta.Valid || points[0].Delta.Value != test.want {
			t.Errorf("%s: expected delta %v, got %+v", test.name, test.want, points[0].Delta)
		}
	}
}

func TestVolumeDeltaAcrossParents(t *testing.T) {
	fine := []shared.CandleBar{
		// Last bar of the first parent window is bearish.
		fineBar(11, 5, 4, 10),
		// First bar of the second parent window is flat at the same close.
		fineBar(12, 4, 4, 8),
		// Nothing in the third window; a bar in the fourth.
		fineBar(36, 4, 6, 3),
	}

	// Ensure direction state carries across parent windows and empty windows carry no delta.
	points := VolumeDelta(parentBars(4), fine, parentSeconds)
	assert.Equal(t, len(points), 4)
	assert.Equal(t, points[0].Delta.Value, float64(-10))
	assert.Equal(t, points[1].Delta.Value, float64(-8))
	assert.False(t, points[2].Delta.Valid)
	assert.True(t, points[3].Delta.Valid)
	assert.Equal(t, points[3].Delta.Value, float64(3))
}

func TestVolumeDeltaUnorderedInput(t *testing.T) {
	fine := []shared.CandleBar{
		fineBar(2, 2, 2, 7),
		fineBar(0, 1, 2, 10),
		fineBar(1, 2, 2, 5),
	}

	// Ensure the fine stream is ordered before directions are resolved.
	points := VolumeDelta(parentBars(1), fine, parentSeconds)
	assert.Equal(t, points[0].Delta.Value, float64(22))

	// Ensure bars outside every parent window are ignored.
	outside := []shared.CandleBar{{Time: parentStart - fineSeconds, Open: 1, Close: 2, Volume: 9}}
	points = VolumeDelta(parentBars(1), outside, parentSeconds)
	assert.False(t, points[0].Delta.Valid)
}
