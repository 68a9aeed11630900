// Package flex renders earthquake alerts as LINE Flex messages: a bubble with
// a vertical body of text lines and a footer of URI buttons, or a carousel of
// such bubbles.
package flex

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/couchcryptid/quake-alert-service/internal/domain"
)

const (
	// AltTextSingle is shown in notifications for a one-event alert.
	AltTextSingle = "แจ้งเตือนแผ่นดินไหว! / Earthquake Alert!"
	// AltTextMultiple is shown in notifications for a carousel.
	AltTextMultiple = "แจ้งเตือนแผ่นดินไหวหลายรายการ! / Multiple Earthquake Alerts!"

	// MaxCarouselBubbles is the messaging API limit for one carousel.
	MaxCarouselBubbles = 10

	timeLayout  = "2006-01-02 15:04:05"
	alertRed    = "#B71C1C"
	buttonRed   = "#D32F2F"
	mapsBaseURL = "https://www.google.com/maps/search/?api=1&query="
	newsBaseURL = "https://www.google.com/search?q="
	newsPrefix  = "แผ่นดินไหว " // "earthquake"
)

// Formatter renders earthquake events as Flex messages. Times are shown in
// the configured location.
type Formatter struct {
	location *time.Location
}

// NewFormatter creates a Formatter. A nil location means UTC.
func NewFormatter(location *time.Location) *Formatter {
	if location == nil {
		location = time.UTC
	}
	return &Formatter{location: location}
}

// Bubble renders one event.
func (f *Formatter) Bubble(e domain.SeismicEvent) *messaging_api.FlexBubble {
	body := &messaging_api.FlexBox{
		Layout:  messaging_api.FlexBoxLAYOUT_VERTICAL,
		Spacing: "md",
		Contents: []messaging_api.FlexComponentInterface{
			&messaging_api.FlexText{
				Text:   "📢 " + AltTextSingle,
				Weight: messaging_api.FlexTextWEIGHT_BOLD,
				Size:   "xl",
				Color:  alertRed,
			},
			&messaging_api.FlexText{Text: "📍 พิกัด / Location: " + e.Place, Wrap: true},
			&messaging_api.FlexText{Text: "📏 ขนาด / Magnitude: " + domain.FormatMagnitude(e.Magnitude) + " ริกเตอร์"},
			&messaging_api.FlexText{Text: "🕒 เวลา / Time: " + f.LocalTime(e)},
		},
	}

	footer := &messaging_api.FlexBox{
		Layout:  messaging_api.FlexBoxLAYOUT_VERTICAL,
		Spacing: "sm",
		Contents: []messaging_api.FlexComponentInterface{
			&messaging_api.FlexButton{
				Style:  messaging_api.FlexButtonSTYLE_PRIMARY,
				Color:  buttonRed,
				Action: &messaging_api.UriAction{Label: "🗺️ ดูแผนที่ / View Map", Uri: MapURL(e.Lat, e.Lon)},
			},
			&messaging_api.FlexButton{
				Style:  messaging_api.FlexButtonSTYLE_LINK,
				Action: &messaging_api.UriAction{Label: "📰 อ่านข่าว / More News", Uri: NewsURL(e.Place)},
			},
		},
	}

	return &messaging_api.FlexBubble{Body: body, Footer: footer}
}

// Message renders events as one Flex message: a bubble for a single event, a
// carousel of at most MaxCarouselBubbles otherwise. It returns false when
// events is empty.
func (f *Formatter) Message(events []domain.SeismicEvent) (*messaging_api.FlexMessage, bool) {
	switch len(events) {
	case 0:
		return nil, false
	case 1:
		return &messaging_api.FlexMessage{AltText: AltTextSingle, Contents: f.Bubble(events[0])}, true
	}

	if len(events) > MaxCarouselBubbles {
		events = events[:MaxCarouselBubbles]
	}
	bubbles := make([]messaging_api.FlexBubble, len(events))
	for i, e := range events {
		bubbles[i] = *f.Bubble(e)
	}
	return &messaging_api.FlexMessage{
		AltText:  AltTextMultiple,
		Contents: &messaging_api.FlexCarousel{Contents: bubbles},
	}, true
}

// LocalTime formats the event time as "YYYY-MM-DD HH:MM:SS" in the
// formatter's location.
func (f *Formatter) LocalTime(e domain.SeismicEvent) string {
	return time.UnixMilli(e.TimeMillis).In(f.location).Format(timeLayout)
}

// MapURL links to a map search for the coordinates.
func MapURL(lat, lon float64) string {
	coords := strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
	return mapsBaseURL + quote(coords)
}

// NewsURL links to a web search for news about an earthquake at place.
func NewsURL(place string) string {
	return newsBaseURL + quote(newsPrefix+place)
}

// quote applies query-component escaping: everything but unreserved
// characters is percent-encoded, '/' included, and spaces become %20 rather
// than '+'.
func quote(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
