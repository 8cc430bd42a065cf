package google

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/investorcrm/backend/internal/infrastructure/integrations"
	"github.com/tidwall/gjson"
)

// CalendarEvent is a Google Calendar event
type CalendarEvent struct {
	ID          string
	Summary     string
	Description string
	Location    string
	MeetingURL  string
	Start       time.Time
	End         time.Time
	Attendees   []string
	Cancelled   bool
}

// DurationMinutes returns the event length, at least one minute
func (e CalendarEvent) DurationMinutes() int {
	d := int(e.End.Sub(e.Start).Minutes())
	if d < 1 {
		return 1
	}
	return d
}

// ListEvents returns primary-calendar events updated after since. Recurring events are expanded.
func (c *Client) ListEvents(ctx context.Context, accessToken string, since time.Time) ([]CalendarEvent, error) {
	auth := integrations.Bearer(accessToken)
	var out []CalendarEvent
	pageToken := ""
	for page := 0; page < maxListPages; page++ {
		q := url.Values{
			"updatedMin":   {since.UTC().Format(time.RFC3339)},
			"singleEvents": {"true"},
			"showDeleted":  {"true"},
			"maxResults":   {"250"},
		}
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}
		res, err := c.api.JSON(ctx, "calendar.list", http.MethodGet,
			c.cfg.CalendarURL+"/calendars/primary/events?"+q.Encode(), auth, nil)
		if err != nil {
			return nil, err
		}
		res.Get("items").ForEach(func(_, item gjson.Result) bool {
			if ev, ok := parseEvent(item); ok {
				out = append(out, ev)
			}
			return true
		})
		pageToken = res.Get("nextPageToken").String()
		if pageToken == "" {
			break
		}
	}
	return out, nil
}

// CreateEvent inserts an event on the primary calendar and returns its ID
func (c *Client) CreateEvent(ctx context.Context, accessToken string, ev CalendarEvent) (string, error) {
	attendees := make([]map[string]string, 0, len(ev.Attendees))
	for _, a := range ev.Attendees {
		attendees = append(attendees, map[string]string{"email": a})
	}
	body := map[string]any{
		"summary":     ev.Summary,
		"description": ev.Description,
		"location":    ev.Location,
		"start":       map[string]string{"dateTime": ev.Start.UTC().Format(time.RFC3339)},
		"end":         map[string]string{"dateTime": ev.End.UTC().Format(time.RFC3339)},
		"attendees":   attendees,
	}
	res, err := c.api.JSON(ctx, "calendar.insert", http.MethodPost,
		c.cfg.CalendarURL+"/calendars/primary/events?sendUpdates=all", integrations.Bearer(accessToken), body)
	if err != nil {
		return "", err
	}
	return res.Get("id").String(), nil
}

// parseEvent skips all-day events, which carry a date instead of a dateTime
func parseEvent(item gjson.Result) (CalendarEvent, bool) {
	start, err := time.Parse(time.RFC3339, item.Get("start.dateTime").String())
	if err != nil {
		return CalendarEvent{}, false
	}
	end, err := time.Parse(time.RFC3339, item.Get("end.dateTime").String())
	if err != nil {
		end = start.Add(time.Hour)
	}
	ev := CalendarEvent{
		ID:          item.Get("id").String(),
		Summary:     item.Get("summary").String(),
		Description: item.Get("description").String(),
		Location:    item.Get("location").String(),
		MeetingURL:  item.Get("hangoutLink").String(),
		Start:       start.UTC(),
		End:         end.UTC(),
		Cancelled:   item.Get("status").String() == "cancelled",
	}
	item.Get("attendees").ForEach(func(_, a gjson.Result) bool {
		if a.Get("self").Bool() || a.Get("resource").Bool() {
			return true
		}
		if email := strings.ToLower(a.Get("email").String()); email != "" {
			ev.Attendees = append(ev.Attendees, email)
		}
		return true
	})
	return ev, true
}
