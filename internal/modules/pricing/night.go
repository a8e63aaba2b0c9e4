// README: Night surcharge resolver (22:00-06:00 local windows).
package pricing

import (
	"time"

	"homely/internal/types"
)

const nightWindowStartHour = 22

// nightWindowLen spans 22:00 through 06:00 the next day.
const nightWindowLen = 8 * time.Hour

// NightCount returns how many distinct 22:00-06:00 windows the interval
// [start, start+duration) overlaps. Any overlap with a window counts as a
// full night; the surcharge is flat per night, not duration-proportional.
func NightCount(start time.Time, duration time.Duration) int {
	if duration < 0 {
		duration = 0
	}
	end := start.Add(duration)

	// First candidate window starts at 22:00 the day before, to catch
	// intervals that begin in the 00:00-06:00 tail of the previous window.
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	count := 0
	for ws := day.AddDate(0, 0, -1).Add(nightWindowStartHour * time.Hour); ws.Before(end) || ws.Equal(end); ws = ws.AddDate(0, 0, 1) {
		we := ws.Add(nightWindowLen)
		if overlaps(start, end, ws, we) {
			count++
		}
		if !ws.Before(end) {
			break
		}
	}
	return count
}

// overlaps reports whether [aStart,aEnd) intersects [bStart,bEnd). A zero
// duration interval still overlaps the window containing its instant.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	if aStart.Equal(aEnd) {
		return !aStart.Before(bStart) && aStart.Before(bEnd)
	}
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// NightFee is the flat surcharge per overlapped night window.
func NightFee(start time.Time, duration time.Duration) (types.Money, int) {
	nights := NightCount(start, duration)
	return types.Cents(int64(nights) * nightFlatFee), nights
}
