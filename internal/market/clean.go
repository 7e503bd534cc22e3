package market

import (
	"math"
	"sort"
	"time"
)

// cleanCloses pairs timestamps with closes, drops missing, non-positive and
// non-finite values, and collapses points to one per UTC day (the last one
// seen wins, which keeps the provider's final print for that day).
func cleanCloses(ts []int64, cl []*float64) []Point {
	if len(ts) != len(cl) {
		n := len(ts)
		if len(cl) < n {
			n = len(cl)
		}
		ts = ts[:n]
		cl = cl[:n]
	}
	byDay := make(map[time.Time]float64, len(ts))
	for i := 0; i < len(ts); i++ {
		if cl[i] == nil {
			continue
		}
		v := *cl[i]
		if !validClose(v) {
			continue
		}
		byDay[Day(time.Unix(ts[i], 0))] = v
	}
	return sortedPoints(byDay)
}

func validClose(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

func sortedPoints(byDay map[time.Time]float64) []Point {
	out := make([]Point, 0, len(byDay))
	for d, v := range byDay {
		out = append(out, Point{Date: d, Close: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// clip keeps points inside [start, end). Zero bounds are open.
func clip(points []Point, start, end time.Time) []Point {
	out := points[:0:0]
	for _, p := range points {
		if !start.IsZero() && p.Date.Before(Day(start)) {
			continue
		}
		if !end.IsZero() && !p.Date.Before(Day(end)) {
			continue
		}
		out = append(out, p)
	}
	return out
}
