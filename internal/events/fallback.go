package events

import "hearth/internal/model"

// fallbackEvents is shown whenever live data is unavailable. It must stay
// non-empty and only reference embedded images.
var fallbackEvents = [...]model.DisplayEvent{
	{
		ID:        "fallback-1",
		Title:     "Crypto over Tea",
		Date:      "24 July",
		DateShort: "24/07",
		Image:     "/event1.png",
		Fallback:  "/event1.png",
		Subtitle:  "Hearth.",
	},
	{
		ID:        "fallback-2",
		Title:     "Crypto over Tea",
		Date:      "21/05",
		DateShort: "21/05",
		Image:     "/event2.png",
		Fallback:  "/event2.png",
		Subtitle:  "Hearth.",
	},
	{
		ID:        "fallback-3",
		Title:     "After Dark",
		Date:      "14/05",
		DateShort: "14/05",
		Image:     "/event3.png",
		Fallback:  "/event3.png",
		Subtitle:  "Hearth.",
	},
	{
		ID:        "fallback-4",
		Title:     "Sip & Paint",
		Date:      "6/05",
		DateShort: "06/05",
		Image:     "/event4.png",
		Fallback:  "/event4.png",
		Subtitle:  "Night at Hearth.",
	},
}

// Fallback returns a fresh copy of the static event list.
func Fallback() []model.DisplayEvent {
	out := make([]model.DisplayEvent, len(fallbackEvents))
	copy(out, fallbackEvents[:])
	return out
}
