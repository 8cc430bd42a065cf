package google

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/investorcrm/backend/internal/infrastructure/integrations"
	"github.com/tidwall/gjson"
)

// maxListPages bounds paging through a single sync
const maxListPages = 10

// EmailMessage is the metadata of one Gmail message
type EmailMessage struct {
	ID       string
	ThreadID string
	From     string
	To       []string
	Cc       []string
	Subject  string
	Snippet  string
	Date     time.Time
}

// Participants returns every address on the message, lower-cased and without duplicates
func (m EmailMessage) Participants() []string {
	seen := make(map[string]bool)
	var out []string
	for _, addr := range append(append([]string{m.From}, m.To...), m.Cc...) {
		addr = strings.ToLower(strings.TrimSpace(addr))
		if addr == "" || seen[addr] {
			continue
		}
		seen[addr] = true
		out = append(out, addr)
	}
	return out
}

// ListMessages returns messages received or sent after since, newest first, up to limit
func (c *Client) ListMessages(ctx context.Context, accessToken string, since time.Time, limit int) ([]EmailMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	auth := integrations.Bearer(accessToken)

	var ids []string
	pageToken := ""
	for page := 0; page < maxListPages && len(ids) < limit; page++ {
		q := url.Values{
			"q":          {"after:" + strconv.FormatInt(since.Unix(), 10)},
			"maxResults": {strconv.Itoa(min(limit-len(ids), 100))},
		}
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}
		res, err := c.api.JSON(ctx, "gmail.list", http.MethodGet, c.cfg.GmailURL+"/users/me/messages?"+q.Encode(), auth, nil)
		if err != nil {
			return nil, err
		}
		res.Get("messages.#.id").ForEach(func(_, v gjson.Result) bool {
			ids = append(ids, v.String())
			return true
		})
		pageToken = res.Get("nextPageToken").String()
		if pageToken == "" {
			break
		}
	}

	out := make([]EmailMessage, 0, len(ids))
	for _, id := range ids {
		msg, err := c.getMessage(ctx, accessToken, id)
		if err != nil {
			if integrations.IsStatus(err, http.StatusNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

func (c *Client) getMessage(ctx context.Context, accessToken, id string) (EmailMessage, error) {
	q := url.Values{"format": {"metadata"}}
	for _, h := range []string{"From", "To", "Cc", "Subject", "Date"} {
		q.Add("metadataHeaders", h)
	}
	res, err := c.api.JSON(ctx, "gmail.get", http.MethodGet,
		fmt.Sprintf("%s/users/me/messages/%s?%s", c.cfg.GmailURL, url.PathEscape(id), q.Encode()),
		integrations.Bearer(accessToken), nil)
	if err != nil {
		return EmailMessage{}, err
	}
	return parseMessage(res), nil
}

func parseMessage(res gjson.Result) EmailMessage {
	msg := EmailMessage{
		ID:       res.Get("id").String(),
		ThreadID: res.Get("threadId").String(),
		Snippet:  res.Get("snippet").String(),
	}
	if ms := res.Get("internalDate").Int(); ms > 0 {
		msg.Date = time.UnixMilli(ms).UTC()
	}
	res.Get("payload.headers").ForEach(func(_, h gjson.Result) bool {
		value := h.Get("value").String()
		switch strings.ToLower(h.Get("name").String()) {
		case "from":
			if addrs := parseAddresses(value); len(addrs) > 0 {
				msg.From = addrs[0]
			}
		case "to":
			msg.To = parseAddresses(value)
		case "cc":
			msg.Cc = parseAddresses(value)
		case "subject":
			msg.Subject = value
		case "date":
			if msg.Date.IsZero() {
				if t, err := mail.ParseDate(value); err == nil {
					msg.Date = t.UTC()
				}
			}
		}
		return true
	})
	return msg
}

// parseAddresses extracts bare addresses from a header, tolerating malformed entries
func parseAddresses(header string) []string {
	if list, err := mail.ParseAddressList(header); err == nil {
		out := make([]string, 0, len(list))
		for _, a := range list {
			out = append(out, strings.ToLower(a.Address))
		}
		return out
	}
	var out []string
	for _, part := range strings.Split(header, ",") {
		if a, err := mail.ParseAddress(strings.TrimSpace(part)); err == nil {
			out = append(out, strings.ToLower(a.Address))
		}
	}
	return out
}
