package marketdata

import (
	"fmt"
	"time"
)

// Timeframe is a fixed candle interval.
type Timeframe string

const (
	Timeframe1m  Timeframe = "1m"
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe30m Timeframe = "30m"
	Timeframe1h  Timeframe = "1h"
	Timeframe4h  Timeframe = "4h"
	Timeframe1d  Timeframe = "1d"
)

var timeframeDurations = map[Timeframe]time.Duration{
	Timeframe1m:  time.Minute,
	Timeframe5m:  5 * time.Minute,
	Timeframe15m: 15 * time.Minute,
	Timeframe30m: 30 * time.Minute,
	Timeframe1h:  time.Hour,
	Timeframe4h:  4 * time.Hour,
	Timeframe1d:  24 * time.Hour,
}

// ParseTimeframe validates a timeframe string.
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(s)
	if _, ok := timeframeDurations[tf]; !ok {
		return "", fmt.Errorf("unknown timeframe %q", s)
	}
	return tf, nil
}

// Duration returns the bar interval, zero for unknown timeframes.
func (tf Timeframe) Duration() time.Duration {
	return timeframeDurations[tf]
}

// Millis returns the bar interval in milliseconds.
func (tf Timeframe) Millis() int64 {
	return timeframeDurations[tf].Milliseconds()
}

// BarsPerYear returns how many bars of this timeframe fit in a 365-day year.
// Used to annualize per-bar return statistics instead of assuming 252 daily
// bars regardless of timeframe.
func (tf Timeframe) BarsPerYear() float64 {
	d := timeframeDurations[tf]
	if d <= 0 {
		return 0
	}
	return (365 * 24 * time.Hour).Hours() / d.Hours()
}
