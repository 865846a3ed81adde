package model

// RemoteEvent is a single event record as returned by the Luma calendar API.
// Field names follow the provider's JSON so the value can be proxied verbatim
// through /api/events.
type RemoteEvent struct {
	APIID       string `json:"api_id"`
	Name        string `json:"name"`
	StartAt     string `json:"start_at"`
	EndAt       string `json:"end_at,omitempty"`
	CoverURL    string `json:"cover_url,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
}

// DisplayEvent is the card shape rendered by the landing page.
type DisplayEvent struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	// Date is already formatted for display ("Jul 24", or "TBD").
	Date string `json:"date"`
	// DateShort is the same day as "24/07".
	DateShort string `json:"date_short"`
	Image     string `json:"image"`
	// Fallback is the placeholder swapped in when Image fails to load.
	Fallback string `json:"fallback"`
	Subtitle string `json:"subtitle"`
	// Link is empty when the card has no outbound link.
	Link string `json:"link,omitempty"`
}

// HasLink reports whether the card should render as an outbound link.
func (e DisplayEvent) HasLink() bool {
	return e.Link != ""
}
