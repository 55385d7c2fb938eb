package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Alerter reports internal errors to operators.
type Alerter interface {
	Alert(method string, err error, params any)
}

// NopAlerter drops every alert.
type NopAlerter struct{}

func (NopAlerter) Alert(string, error, any) {}

// Slack posts alerts to an incoming webhook. Alerts are sent in the
// background and failures are only logged.
type Slack struct {
	webhookURL string
	httpClient *http.Client
}

func NewSlack(webhookURL string) *Slack {
	return &Slack{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

type slackMessage struct {
	Text string `json:"text"`
}

// Message formats the alert text for an error raised by method.
func Message(method string, err error, params any) string {
	dump, jsonErr := json.MarshalIndent(map[string]any{"method": method, "params": params}, "", "    ")
	if jsonErr != nil {
		dump = []byte(method)
	}
	return fmt.Sprintf("Got `%T`: `\n%v`\n```%s```", err, err, dump)
}

func (s *Slack) Alert(method string, err error, params any) {
	text := Message(method, err, params)
	go func() {
		if err := s.post(context.Background(), text); err != nil {
			log.Printf("[Slack] Alert FAILED: method=%s err=%v", method, err)
		}
	}()
}

func (s *Slack) post(ctx context.Context, text string) error {
	payload, err := json.Marshal(slackMessage{Text: text})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned status %d", resp.StatusCode)
	}
	log.Printf("[Slack] Alert OK: duration=%v", time.Since(start))
	return nil
}
