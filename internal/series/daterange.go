// Package series builds dashboard chart series from the metrics service:
// calendar-aligned date ranges, value padding, and the timeseries
// transforms the charts need.
package series

import (
	"fmt"
	"strconv"
	"time"
)

// Kind selects the dashboard range granularity.
type Kind string

const (
	Month Kind = "month"
	Week  Kind = "week"
	Day   Kind = "day"
)

// Metrics API sample intervals per range kind.
const (
	IntervalDay  = "1d"
	IntervalHour = "1h"
)

// DateRange is one chart window: a half-open [Start, End) interval plus
// the sample interval the metrics service should aggregate at.
type DateRange struct {
	Kind     Kind
	Start    time.Time
	End      time.Time
	Interval string
}

// MonthRange covers the calendar month containing t.
func MonthRange(t time.Time) DateRange {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return DateRange{Kind: Month, Start: start, End: start.AddDate(0, 1, 0), Interval: IntervalDay}
}

// WeekRange covers the Monday-start week containing t.
func WeekRange(t time.Time) DateRange {
	start := midnight(t).AddDate(0, 0, -mondayOffset(t))
	return DateRange{Kind: Week, Start: start, End: start.AddDate(0, 0, 7), Interval: IntervalDay}
}

// DayRange covers the calendar day containing t.
func DayRange(t time.Time) DateRange {
	start := midnight(t)
	return DateRange{Kind: Day, Start: start, End: start.AddDate(0, 0, 1), Interval: IntervalHour}
}

// RangeFrom builds the range of the given kind containing t.
func RangeFrom(kind Kind, t time.Time) (DateRange, error) {
	switch kind {
	case Month:
		return MonthRange(t), nil
	case Week:
		return WeekRange(t), nil
	case Day:
		return DayRange(t), nil
	default:
		return DateRange{}, fmt.Errorf("invalid range kind %q", kind)
	}
}

// Shift moves the range by n of its own units; negative n moves backwards.
func (r DateRange) Shift(n int) DateRange {
	switch r.Kind {
	case Month:
		r.Start = r.Start.AddDate(0, n, 0)
		r.End = r.End.AddDate(0, n, 0)
	case Week:
		r.Start = r.Start.AddDate(0, 0, 7*n)
		r.End = r.End.AddDate(0, 0, 7*n)
	case Day:
		r.Start = r.Start.AddDate(0, 0, n)
		r.End = r.End.AddDate(0, 0, n)
	}
	return r
}

// Count is the number of chart buckets the range spans: days of the month,
// days of the week, or hours of the day.
func (r DateRange) Count() int {
	switch r.Kind {
	case Month:
		// day 0 of the next month is the last day of this one
		return time.Date(r.Start.Year(), r.Start.Month()+1, 0, 0, 0, 0, 0, r.Start.Location()).Day()
	case Week:
		return 7
	default:
		return 24
	}
}

// Keys returns the chart axis labels for the range.
func (r DateRange) Keys() []string {
	switch r.Kind {
	case Month:
		keys := make([]string, r.Count())
		for i := range keys {
			keys[i] = strconv.Itoa(i + 1)
		}
		return keys
	case Week:
		return []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	default:
		keys := make([]string, 24)
		for i := range keys {
			keys[i] = strconv.Itoa(i)
		}
		return keys
	}
}

// Title renders the range's human label relative to now ("This Month",
// "Yesterday", "Week of 05 Dec 2016", ...).
func (r DateRange) Title(now time.Time) string {
	switch r.Kind {
	case Month:
		if r.Start.Year() == now.Year() && r.Start.Month() == now.Month() {
			return "This Month"
		}
		if prev := now.AddDate(0, -1, 0); r.Start.Year() == prev.Year() && r.Start.Month() == prev.Month() {
			return "Last Month"
		}
		return r.Start.Format("Jan 2006")
	case Week:
		return "Week of " + r.Start.Format("02 Jan 2006")
	default:
		y1, m1, d1 := r.Start.Date()
		y2, m2, d2 := now.Date()
		if y1 == y2 && m1 == m2 && d1 == d2 {
			return "Today"
		}
		yesterday := now.AddDate(0, 0, -1)
		y2, m2, d2 = yesterday.Date()
		if y1 == y2 && m1 == m2 && d1 == d2 {
			return "Yesterday"
		}
		return r.Start.Format("02 Jan 2006")
	}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// mondayOffset is the number of days since the most recent Monday.
func mondayOffset(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
