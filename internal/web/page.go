package web

import (
	"hearth/internal/events"
	"hearth/internal/model"
)

const (
	bookingURL   = "https://calendly.com/hearthcowork"
	contactEmail = "hearthcowork@gmail.com"
)

// Plan is one membership tier on the landing page.
type Plan struct {
	ID          string
	Title       string
	Price       string
	Description string
}

var plans = []Plan{
	{
		ID:          "daily",
		Title:       "Daily Drop-In",
		Price:       "$20/day",
		Description: "Daily drop-in are perfect for occasional visits - enjoy access to all shared spaces during open hours. A simple way to plug into Hearth vibe, no strings attached.",
	},
	{
		ID:          "flex",
		Title:       "Flex Pack",
		Price:       "$100/month",
		Description: "Includes 5 day passes to use within the calendar month - perfect for part-time coworkers, creatives on the go, or anyone easing into Hearth community.",
	},
	{
		ID:          "monthly",
		Title:       "Monthly Membership",
		Price:       "$250/month",
		Description: "Get access to our shared spaces Mon - Fri, 8AM to 5PM. The perfect spot to work, create, or connect during the day. Gain access to our perks and events.",
	},
	{
		ID:          "unlimited",
		Title:       "Unlimited Access",
		Price:       "$350/month",
		Description: "Enjoy 24/7 access to the space, with occasional exceptions for private events. Includes special events discounts and extended member perks to make the most of your time.",
	},
	{
		ID:          "private",
		Title:       "Private Event Rental",
		Price:       "$100/hr",
		Description: "Your booking includes use of all A/V equipment and furniture, plus cleanup after your event. We recommend scheduling outside of weekday working hours - after 5 PM or anytime on weekends.",
	},
}

// Photo is a gallery image.
type Photo struct {
	Src string
	Alt string
}

var galleryAlts = []string{
	"Hearth workspace with plants and natural lighting",
	"Collaborative workspace setup",
	"Main workspace area with natural elements",
	"Wellness and meditation area",
}

// pageData is everything index.html.tmpl renders.
type pageData struct {
	Events []model.DisplayEvent
	Live   bool
	Notice string

	CalendarURL string
	BookingURL  string
	Email       string

	Plans   []Plan
	Gallery []Photo
	Year    int
}

func (s *Server) newPageData(res events.Result) pageData {
	images := events.PlaceholderImages()
	gallery := make([]Photo, 0, len(galleryAlts))
	for i, alt := range galleryAlts {
		gallery = append(gallery, Photo{Src: images[i%len(images)], Alt: alt})
	}

	return pageData{
		Events:      res.Events,
		Live:        res.Live,
		Notice:      res.Notice,
		CalendarURL: s.cfg.PublicCalendarURL(),
		BookingURL:  bookingURL,
		Email:       contactEmail,
		Plans:       plans,
		Gallery:     gallery,
		Year:        s.now().Year(),
	}
}
