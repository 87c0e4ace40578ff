package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/pauljones0/kiosk-listings/internal/util"
)

const (
	colorFailed    = 16711680 // #FF0000
	colorRecovered = 3066993  // #2ECC71

	maxErrorLength = 1000
)

// Client posts sync alerts to a Discord webhook.
type Client struct {
	webhookURL  string
	client      *http.Client
	rateLimiter *rate.Limiter
	retries     int
	backoff     time.Duration
	now         func() time.Time
}

func New(webhookURL string) *Client {
	return &Client{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		// Discord allows roughly 30 webhook posts a minute.
		rateLimiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
		retries:     3,
		backoff:     time.Second,
		now:         time.Now,
	}
}

// Enabled reports whether a webhook URL is configured.
func (c *Client) Enabled() bool { return c.webhookURL != "" }

// Send posts one alert for the given auction. It is a no-op without a
// webhook URL.
func (c *Client) Send(ctx context.Context, auctionID string, alert Alert) error {
	if !c.Enabled() {
		return nil
	}
	embed := formatAlertToEmbed(auctionID, alert, c.now())
	return util.RetryWithBackoff(ctx, c.retries, c.backoff, func(attempt int) error {
		return c.post(ctx, embed)
	})
}

// Internal structures
type discordWebhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordEmbedFooter struct {
	Text string `json:"text,omitempty"`
}

type discordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Footer      discordEmbedFooter  `json:"footer,omitempty"`
}

func formatAlertToEmbed(auctionID string, alert Alert, now time.Time) discordEmbed {
	embed := discordEmbed{
		Timestamp: now.UTC().Format(time.RFC3339),
		Footer:    discordEmbedFooter{Text: "auction " + auctionID},
	}

	switch alert.Kind {
	case AlertFailed:
		embed.Title = fmt.Sprintf("Listing sync failing (%d in a row)", alert.Consecutive)
		embed.Color = colorFailed
		if alert.Err != nil {
			msg := alert.Err.Error()
			if len(msg) > maxErrorLength {
				msg = msg[:maxErrorLength] + "..."
			}
			embed.Description = "```" + msg + "```"
		}
		embed.Fields = []discordEmbedField{
			{Name: "Consecutive failures", Value: fmt.Sprint(alert.Consecutive), Inline: true},
		}
	case AlertRecovered:
		embed.Title = "Listing sync recovered"
		embed.Color = colorRecovered
		embed.Fields = []discordEmbedField{
			{Name: "Failed passes", Value: fmt.Sprint(alert.Consecutive), Inline: true},
			{Name: "Items", Value: fmt.Sprint(alert.Items), Inline: true},
		}
	}
	return embed
}

func (c *Client) post(ctx context.Context, embed discordEmbed) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return util.Permanent(err)
	}

	payloadBytes, err := json.Marshal(discordWebhookPayload{Embeds: []discordEmbed{embed}})
	if err != nil {
		return util.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payloadBytes))
	if err != nil {
		return util.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	bodyBytes, _ := io.ReadAll(resp.Body)
	statusErr := fmt.Errorf("discord status: %s, body: %s", resp.Status, string(bodyBytes))
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return statusErr
	}
	return util.Permanent(statusErr)
}
