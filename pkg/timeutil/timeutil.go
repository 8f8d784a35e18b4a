// Package timeutil provides the UTC time arithmetic the screening pipeline
// shares across components: ISO-8601 parsing tolerant of both "Z" and
// "+00:00" suffixes, Julian date conversion, and Greenwich mean sidereal
// time for the visualization-grade ECI->ECEF rotation in pkg/snapshot.
package timeutil

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ISOFormat is the second-resolution, Z-suffixed format every artifact
// timestamp is serialized with.
const ISOFormat = "2006-01-02T15:04:05Z"

// ParseISO accepts ISO-8601 timestamps with either a "Z" or a numeric UTC
// offset (including "+00:00") and returns the UTC instant.
func ParseISO(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		ISOFormat,
		"2006-01-02T15:04:05.999999999Z07:00",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("timeutil: cannot parse %q as ISO-8601", s)
}

// FormatISO truncates to whole seconds and renders with a "Z" suffix, per
// spec: "ISO serialization truncates to whole seconds."
func FormatISO(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(ISOFormat)
}

// JulianDate returns the Julian date (days since noon UTC on 4713 BC Jan 1)
// for t, matching the calendar-based formula astragaurd's original
// implementation uses (month/year adjusted, a=floor(year/100),
// b=2-a+floor(a/4)), not a naive Unix-seconds conversion, so behavior matches
// at second resolution including leap seconds the original ignores.
func JulianDate(t time.Time) float64 {
	t = t.UTC()
	y := t.Year()
	m := int(t.Month())
	if m <= 2 {
		y--
		m += 12
	}
	day := float64(t.Day()) + (float64(t.Hour())+float64(t.Minute())/60+
		(float64(t.Second())+float64(t.Nanosecond())/1e9)/3600)/24

	a := math.Floor(float64(y) / 100)
	b := 2 - a + math.Floor(a/4)

	jd := math.Floor(365.25*(float64(y)+4716)) +
		math.Floor(30.6001*(float64(m)+1)) +
		day + b - 1524.5
	return jd
}

// GMSTRadians returns the Greenwich mean sidereal time angle, in radians in
// [0, 2*pi), for t, via the IAU-82 polynomial used by the original
// implementation's `_gmst_rad`.
func GMSTRadians(t time.Time) float64 {
	jd := JulianDate(t)
	du := jd - 2451545.0
	cent := du / 36525.0

	gmstDeg := 280.46061837 +
		360.98564736629*du +
		0.000387933*cent*cent -
		(cent*cent*cent)/38710000.0

	gmstDeg = math.Mod(gmstDeg, 360.0)
	if gmstDeg < 0 {
		gmstDeg += 360.0
	}
	return gmstDeg * math.Pi / 180.0
}

// BuildUniformTimeline builds t0, t0+dt, ..., t0+horizon, appending the exact
// horizon endpoint as a final sample if the horizon is not a multiple of dt.
func BuildUniformTimeline(start time.Time, horizon time.Duration, dt time.Duration) []time.Time {
	if dt <= 0 {
		return nil
	}
	n := int(horizon / dt)
	times := make([]time.Time, 0, n+2)
	for i := 0; i <= n; i++ {
		times = append(times, start.Add(time.Duration(i)*dt))
	}
	last := start.Add(horizon)
	if len(times) == 0 || !times[len(times)-1].Equal(last) {
		times = append(times, last)
	}
	return times
}
