package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/rcliao/sidekick/internal/model"
)

const (
	defaultSlackAPI  = "https://slack.com/api"
	defaultPollEvery = 3 * time.Second
	defaultPageSize  = 10
)

// SlackChannel polls conversations.history through the Slack Web API.
type SlackChannel struct {
	botToken  string
	channelID string
	baseURL   string
	interval  time.Duration
	pageSize  int
	client    *http.Client
}

// NewSlackChannel builds a channel for one Slack conversation. The
// channel id may be empty for send-only use; Listen requires it.
func NewSlackChannel(botToken, channelID string) *SlackChannel {
	return &SlackChannel{
		botToken:  botToken,
		channelID: channelID,
		baseURL:   defaultSlackAPI,
		interval:  defaultPollEvery,
		pageSize:  defaultPageSize,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Name implements Channel.
func (s *SlackChannel) Name() string { return "slack" }

// Send implements Channel.
func (s *SlackChannel) Send(ctx context.Context, message, destination string) error {
	body, err := json.Marshal(map[string]string{
		"channel": destination,
		"text":    message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat.postMessage", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.botToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post message: %w", err)
	}
	resp.Body.Close()
	return nil
}

type slackMessage struct {
	TS   string `json:"ts"`
	User string `json:"user"`
	Text string `json:"text"`
}

type historyResponse struct {
	Messages []slackMessage `json:"messages"`
}

// Listen implements Channel. It runs the polling loop forever: fetch a
// page from the high-water mark onward, replay it oldest-first, skip
// self-authored and already-seen events, and emit the rest into out.
func (s *SlackChannel) Listen(ctx context.Context, out chan<- model.ChannelMessage) error {
	if s.channelID == "" {
		return fmt.Errorf("slack channel_id required for listening")
	}

	botID := s.botUserID(ctx)
	lastTS := ""

	slog.Info("slack channel listening", "channel_id", s.channelID)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.interval):
		}

		query := url.Values{
			"channel": {s.channelID},
			"limit":   {strconv.Itoa(s.pageSize)},
		}
		if lastTS != "" {
			query.Set("oldest", lastTS)
		}

		var page historyResponse
		if err := s.getJSON(ctx, "/conversations.history", query, &page); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Warn("slack poll error", "error", err)
			continue
		}

		// The feed is newest-first; walk it backwards so the marker
		// and the sink both see chronological order.
		for i := len(page.Messages) - 1; i >= 0; i-- {
			msg := page.Messages[i]

			user := msg.User
			if user == "" {
				user = "unknown"
			}
			if user == botID {
				continue
			}

			// String comparison of the marker assumes the feed's
			// second.micros timestamps stay fixed-width.
			if msg.Text == "" || msg.TS <= lastTS {
				continue
			}
			lastTS = msg.TS

			cm := model.ChannelMessage{
				ID:        uuid.NewString(),
				Sender:    s.channelID,
				Content:   msg.Text,
				Channel:   "slack",
				Timestamp: time.Now().Unix(),
			}

			select {
			case <-ctx.Done():
				return nil
			case out <- cm:
			}
		}
	}
}

// HealthCheck implements Channel.
func (s *SlackChannel) HealthCheck(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/auth.test", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+s.botToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// botUserID looks up the bot's own user id so its messages can be
// filtered out of the feed. Best effort: on failure polling proceeds
// with an unknown identity.
func (s *SlackChannel) botUserID(ctx context.Context) string {
	var resp struct {
		UserID string `json:"user_id"`
	}
	if err := s.getJSON(ctx, "/auth.test", nil, &resp); err != nil {
		return ""
	}
	return resp.UserID
}

func (s *SlackChannel) getJSON(ctx context.Context, path string, query url.Values, v interface{}) error {
	u := s.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.botToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(v)
}
