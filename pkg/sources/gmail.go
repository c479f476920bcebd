// Package sources holds the external data-source clients the dispatcher
// calls into. Authentication is external: clients receive a ready-to-use
// token source and never run an OAuth flow themselves.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/parley-hq/parley/pkg/types"
)

const (
	gmailAPIBase          = "https://gmail.googleapis.com/gmail/v1"
	defaultRequestTimeout = 60 * time.Second
)

// GmailClient implements the mail collaborator over the Gmail REST API.
type GmailClient struct {
	httpClient  *http.Client
	apiBase     string
	tokenSource oauth2.TokenSource
}

// GmailOption configures a GmailClient.
type GmailOption func(*GmailClient)

// WithAPIBase overrides the API endpoint. Used by tests.
func WithAPIBase(base string) GmailOption {
	return func(c *GmailClient) { c.apiBase = strings.TrimSuffix(base, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) GmailOption {
	return func(c *GmailClient) { c.httpClient = hc }
}

// NewGmailClient creates a Gmail client around an externally supplied
// token source.
func NewGmailClient(ts oauth2.TokenSource, opts ...GmailOption) *GmailClient {
	c := &GmailClient{
		httpClient:  &http.Client{Timeout: defaultRequestTimeout},
		apiBase:     gmailAPIBase,
		tokenSource: ts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StaticTokenSource wraps a pre-authenticated bearer token.
func StaticTokenSource(accessToken string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
}

// Search runs a mail filter against the messages.list + messages.get
// endpoints and returns ordered message summaries. An empty result is not
// an error.
func (c *GmailClient) Search(ctx context.Context, filter types.MailFilter) ([]types.MessageSummary, error) {
	query := BuildGmailQuery(filter)

	path := fmt.Sprintf("/users/me/messages?maxResults=%d", filter.MaxResults)
	if query != "" {
		path += "&q=" + url.QueryEscape(query)
	}

	var list struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := c.request(ctx, path, &list); err != nil {
		return nil, err
	}

	log.Debug().Str("query", query).Int("matches", len(list.Messages)).Msg("gmail search")

	summaries := make([]types.MessageSummary, 0, len(list.Messages))
	for _, m := range list.Messages {
		summary, err := c.getSummary(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

// BuildGmailQuery renders a MailFilter as a Gmail search expression.
func BuildGmailQuery(filter types.MailFilter) string {
	var parts []string
	if filter.Sender != "" {
		parts = append(parts, "from:"+filter.Sender)
	}
	if filter.Subject != "" {
		parts = append(parts, "subject:"+quoteIfSpaced(filter.Subject))
	}
	// Gmail date operators use YYYY/MM/DD.
	if filter.After != nil {
		parts = append(parts, "after:"+filter.After.Format("2006/01/02"))
	}
	if filter.Before != nil {
		parts = append(parts, "before:"+filter.Before.Format("2006/01/02"))
	}
	return strings.Join(parts, " ")
}

func quoteIfSpaced(s string) string {
	if strings.ContainsAny(s, " \t") {
		return `"` + s + `"`
	}
	return s
}

func (c *GmailClient) getSummary(ctx context.Context, msgID string) (*types.MessageSummary, error) {
	path := fmt.Sprintf("/users/me/messages/%s?format=metadata&metadataHeaders=From&metadataHeaders=Subject&metadataHeaders=Date", msgID)

	var msg gmailMessage
	if err := c.request(ctx, path, &msg); err != nil {
		return nil, err
	}
	return msg.toSummary(), nil
}

type gmailMessage struct {
	ID      string `json:"id"`
	Snippet string `json:"snippet"`
	Payload struct {
		Headers []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"headers"`
	} `json:"payload"`
}

func (m *gmailMessage) toSummary() *types.MessageSummary {
	summary := &types.MessageSummary{
		ID:      m.ID,
		Snippet: m.Snippet,
	}
	for _, h := range m.Payload.Headers {
		switch h.Name {
		case "From":
			summary.Sender = h.Value
		case "Subject":
			summary.Subject = h.Value
		case "Date":
			summary.Date = ParseEmailDate(h.Value)
		}
	}
	return summary
}

// request makes an authenticated GET against the Gmail API.
func (c *GmailClient) request(ctx context.Context, path string, result any) error {
	token, err := c.tokenSource.Token()
	if err != nil {
		return fmt.Errorf("gmail token source: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.apiBase+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gmail API error %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

// ParseEmailDate parses the date formats seen in message headers. Unknown
// formats yield the zero time rather than an error.
func ParseEmailDate(dateStr string) time.Time {
	formats := []string{
		time.RFC1123Z,
		"Mon, 2 Jan 2006 15:04:05 -0700",
		"Mon, 2 Jan 2006 15:04:05 MST",
		"2 Jan 2006 15:04:05 -0700",
		time.RFC3339,
	}
	for _, f := range formats {
		if t, err := time.Parse(f, dateStr); err == nil {
			return t
		}
	}
	return time.Time{}
}

// LoadTokenFile reads a JSON-encoded oauth2 token from disk and returns a
// static source for it. Refresh handling belongs to whatever wrote the file.
func LoadTokenFile(path string) (oauth2.TokenSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", path, err)
	}
	return oauth2.StaticTokenSource(&token), nil
}
