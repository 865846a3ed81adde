package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"hearth/internal/events"
	appLog "hearth/internal/log"
	"hearth/internal/model"
)

const productID = "-//Hearth//Upcoming Events//EN"

// Feed describes the calendar being exported.
type Feed struct {
	// Name is shown by calendar clients (X-WR-CALNAME).
	Name string
	// Stamp is used as DTSTAMP for every event.
	Stamp time.Time
}

// Build serializes upcoming events as an iCalendar document.
//
// Events whose start cannot be parsed are skipped; the rest keep their
// provider order. A missing or unparsable end is simply omitted.
func Build(feed Feed, remote []model.RemoteEvent) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if feed.Name != "" {
		cal.SetXWRCalName(feed.Name)
	}

	stamp := feed.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	skipped := 0
	for _, ev := range remote {
		start, err := events.ParseTimestamp(ev.StartAt)
		if err != nil {
			appLog.Error("ics export: skipping event with invalid start", err, "id", ev.APIID)
			skipped++
			continue
		}

		vev := cal.AddEvent(uid(ev))
		vev.SetDtStampTime(stamp.UTC())
		vev.SetStartAt(start.UTC())
		if end, err := events.ParseTimestamp(ev.EndAt); err == nil && end.After(start) {
			vev.SetEndAt(end.UTC())
		}
		vev.SetSummary(ev.Name)
		if ev.Description != "" {
			vev.SetDescription(ev.Description)
		}
		if ev.URL != "" {
			vev.SetURL(ev.URL)
		}
	}

	appLog.Debug("ics export built", "events", len(remote)-skipped, "skipped", skipped)
	return cal.Serialize()
}

func uid(ev model.RemoteEvent) string {
	return ev.APIID + "@lu.ma"
}
