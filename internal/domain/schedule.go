package domain

import "time"

// ScheduleRow is one calendar day's prayer times for a label. Time-of-day
// fields are opaque strings; the rendering layer interprets them.
type ScheduleRow struct {
	Label     string    `json:"label"`
	Month     int       `json:"month"`
	Day       int       `json:"day"`
	Fajr      string    `json:"fajr"`
	Sunrise   string    `json:"sunrise"`
	Dhuhr     string    `json:"dhuhr"`
	Asr       string    `json:"asr"`
	Maghrib   string    `json:"maghrib"`
	Isha      string    `json:"isha"`
	CreatedAt time.Time `json:"created_at"`
}

// ScheduleSummary is a derived view, computed by grouping, never stored.
type ScheduleSummary struct {
	Label               string    `json:"label"`
	TotalDays           int       `json:"totalDays"`
	MostRecentCreatedAt time.Time `json:"mostRecentCreatedAt"`
}

type IngestResult struct {
	Label           string `json:"label"`
	RecordsInserted int    `json:"recordsInserted"`
}

type PrayerTimes struct {
	Fajr    string `json:"fajr"`
	Sunrise string `json:"sunrise"`
	Dhuhr   string `json:"dhuhr"`
	Asr     string `json:"asr"`
	Maghrib string `json:"maghrib"`
	Isha    string `json:"isha"`
}

func (r *ScheduleRow) Times() PrayerTimes {
	return PrayerTimes{
		Fajr:    r.Fajr,
		Sunrise: r.Sunrise,
		Dhuhr:   r.Dhuhr,
		Asr:     r.Asr,
		Maghrib: r.Maghrib,
		Isha:    r.Isha,
	}
}
