package contract

import (
	"time"
)

// gpsEpoch is 1980-01-06T00:00:00Z, the zero of GPS time.
var gpsEpoch = time.Date(1980, time.January, 6, 0, 0, 0, 0, time.UTC)

// leapSeconds lists the UTC instants at which a leap second had been inserted since the GPS epoch.
var leapSeconds = []time.Time{
	time.Date(1981, time.July, 1, 0, 0, 0, 0, time.UTC),
	time.Date(1982, time.July, 1, 0, 0, 0, 0, time.UTC),
	time.Date(1983, time.July, 1, 0, 0, 0, 0, time.UTC),
	time.Date(1985, time.July, 1, 0, 0, 0, 0, time.UTC),
	time.Date(1988, time.January, 1, 0, 0, 0, 0, time.UTC),
	time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC),
	time.Date(1991, time.January, 1, 0, 0, 0, 0, time.UTC),
	time.Date(1992, time.July, 1, 0, 0, 0, 0, time.UTC),
	time.Date(1993, time.July, 1, 0, 0, 0, 0, time.UTC),
	time.Date(1994, time.July, 1, 0, 0, 0, 0, time.UTC),
	time.Date(1996, time.January, 1, 0, 0, 0, 0, time.UTC),
	time.Date(1997, time.July, 1, 0, 0, 0, 0, time.UTC),
	time.Date(1999, time.January, 1, 0, 0, 0, 0, time.UTC),
	time.Date(2006, time.January, 1, 0, 0, 0, 0, time.UTC),
	time.Date(2009, time.January, 1, 0, 0, 0, 0, time.UTC),
	time.Date(2012, time.July, 1, 0, 0, 0, 0, time.UTC),
	time.Date(2015, time.July, 1, 0, 0, 0, 0, time.UTC),
	time.Date(2017, time.January, 1, 0, 0, 0, 0, time.UTC),
}

// leapsBefore counts the leap seconds inserted at or before t.
func leapsBefore(t time.Time) int64 {
	var n int64
	for _, ls := range leapSeconds {
		if !t.Before(ls) {
			n++
		}
	}
	return n
}

// GPSFromTime converts a UTC instant to integer GPS seconds.
func GPSFromTime(t time.Time) int64 {
	t = t.UTC()
	return int64(t.Sub(gpsEpoch)/time.Second) + leapsBefore(t)
}

// TimeFromGPS converts integer GPS seconds to a UTC instant.
func TimeFromGPS(gps int64) time.Time {
	t := gpsEpoch.Add(time.Duration(gps) * time.Second)
	// Subtracting leap seconds can move t back across a leap boundary, so settle on a fixed point.
	for range 2 {
		t = gpsEpoch.Add(time.Duration(gps-leapsBefore(t)) * time.Second)
	}
	return t
}

// NowGPS returns the current time in GPS seconds.
func NowGPS() int64 {
	return GPSFromTime(time.Now())
}
