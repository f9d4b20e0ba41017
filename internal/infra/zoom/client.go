package zoom

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	DefaultAPIBaseURL       = "https://api.zoom.us/v2"
	DefaultTokenURL         = "https://zoom.us/oauth/token"
	DefaultConferenceDomain = "conference.zoom.us"
)

// ErrNotConfigured is returned when credentials are missing.
var ErrNotConfigured = errors.New("zoom client not configured")

type Config struct {
	AccountID        string
	ClientID         string
	ClientSecret     string
	BotJID           string
	APIBaseURL       string
	TokenURL         string
	ConferenceDomain string
}

// Client sends chat messages through the Zoom REST API using
// Server-to-Server OAuth. Tokens are cached and refreshed by the oauth2 source.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(ctx context.Context, cfg Config) *Client {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.ConferenceDomain == "" {
		cfg.ConferenceDomain = DefaultConferenceDomain
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	credentials := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
		EndpointParams: url.Values{
			"grant_type": {"account_credentials"},
			"account_id": {cfg.AccountID},
		},
	}
	httpClient := credentials.Client(ctx)
	httpClient.Timeout = 15 * time.Second
	return &Client{cfg: cfg, http: httpClient}
}

// Configured reports whether all credentials are present.
func (c *Client) Configured() bool {
	return c.cfg.AccountID != "" && c.cfg.ClientID != "" && c.cfg.ClientSecret != ""
}

type messageContent struct {
	Head messageText `json:"head"`
	Body []bodyItem  `json:"body"`
}

type messageText struct {
	Text string `json:"text"`
}

type bodyItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type chatbotMessage struct {
	RobotJID  string         `json:"robot_jid"`
	ToJID     string         `json:"to_jid"`
	AccountID string         `json:"account_id"`
	Content   messageContent `json:"content"`
}

// SendToMeeting posts a chatbot message into the meeting's chat channel.
func (c *Client) SendToMeeting(ctx context.Context, meetingID, text string) error {
	if !c.Configured() || c.cfg.BotJID == "" {
		return ErrNotConfigured
	}
	head, body := splitMessage(text)
	return c.post(ctx, "/im/chat/messages", chatbotMessage{
		RobotJID:  c.cfg.BotJID,
		ToJID:     meetingID + "@" + c.cfg.ConferenceDomain,
		AccountID: c.cfg.AccountID,
		Content: messageContent{
			Head: messageText{Text: head},
			Body: []bodyItem{{Type: "message", Text: body}},
		},
	})
}

// SendToUser sends a direct chat message to one Zoom user.
func (c *Client) SendToUser(ctx context.Context, userID, text string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	return c.post(ctx, "/chat/users/"+url.PathEscape(userID)+"/messages", map[string]string{
		"message": text,
	})
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode zoom payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIBaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("zoom request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("zoom %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func splitMessage(text string) (string, string) {
	head, body, found := strings.Cut(text, "\n")
	if !found {
		return text, text
	}
	return head, body
}
