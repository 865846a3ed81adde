package events

import (
	"errors"
	"strings"
	"time"
	_ "time/tzdata"

	appLog "hearth/internal/log"
	"hearth/internal/model"
)

const (
	// Subtitle is the branding line printed under every live card.
	Subtitle = "Hearth."

	// DateTBD replaces dates that cannot be parsed.
	DateTBD = "TBD"
)

// placeholderImages is the pool used when an event has no cover image.
// The files are embedded by internal/web.
var placeholderImages = [...]string{
	"/event1.png",
	"/event2.png",
	"/event3.png",
	"/event4.png",
}

// PlaceholderImages returns a copy of the placeholder pool.
func PlaceholderImages() []string {
	out := make([]string, len(placeholderImages))
	copy(out, placeholderImages[:])
	return out
}

// PlaceholderImage picks a placeholder by position. The same index always
// yields the same image.
func PlaceholderImage(index int) string {
	n := len(placeholderImages)
	i := index % n
	if i < 0 {
		i += n
	}
	return placeholderImages[i]
}

// Normalize converts provider events into display cards, keeping order.
// A nil or empty input yields an empty, non-nil slice.
func Normalize(remote []model.RemoteEvent) []model.DisplayEvent {
	out := make([]model.DisplayEvent, 0, len(remote))
	for i, ev := range remote {
		out = append(out, toDisplay(ev, i))
	}
	return out
}

func toDisplay(ev model.RemoteEvent, index int) model.DisplayEvent {
	placeholder := PlaceholderImage(index)

	image := ev.CoverURL
	if image == "" {
		image = placeholder
	}

	return model.DisplayEvent{
		ID:        ev.APIID,
		Title:     ev.Name,
		Date:      FormatDate(ev.StartAt, ev.Timezone),
		DateShort: FormatDateShort(ev.StartAt, ev.Timezone),
		Image:     image,
		Fallback:  placeholder,
		Subtitle:  Subtitle,
		Link:      ev.URL,
	}
}

// ParseTimestamp parses the provider's ISO-8601 timestamps. Values without a
// zone are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}

	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04",
		"2006-01-02",
	}

	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// FormatDate renders a start timestamp as "Jul 24" on the calendar day of
// the IANA zone tz. An empty or unknown zone keeps the timestamp's own
// offset. Unparsable input is logged and rendered as "TBD".
func FormatDate(s, tz string) string {
	return formatIn(s, tz, "Jan 2")
}

// FormatDateShort renders a start timestamp as "24/07", with the same zone
// handling as FormatDate.
func FormatDateShort(s, tz string) string {
	return formatIn(s, tz, "02/01")
}

func formatIn(s, tz, layout string) string {
	t, err := ParseTimestamp(s)
	if err != nil {
		appLog.Error("invalid event date", err, "value", s)
		return DateTBD
	}
	if loc := location(tz); loc != nil {
		t = t.In(loc)
	}
	return t.Format(layout)
}

// location resolves an IANA zone name, or returns nil when tz is empty or
// unknown.
func location(tz string) *time.Location {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		appLog.Debug("unknown event timezone, keeping offset", "timezone", tz)
		return nil
	}
	return loc
}
