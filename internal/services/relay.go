package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/marksheet/internal/models"
	"github.com/desertthunder/marksheet/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// RelayDispatcher posts deliveries as JSON to an HTTP mail relay.
//
// When a token URL is configured, requests carry a bearer token obtained through the
// OAuth2 client credentials flow; tokens are cached and refreshed by [oauth2].
type RelayDispatcher struct {
	url        string
	sender     Sender
	httpClient *http.Client
}

// RelayMessage is the request body accepted by the relay.
type RelayMessage struct {
	From       string          `json:"from"`
	To         string          `json:"to"`
	Subject    string          `json:"subject"`
	Body       string          `json:"body"`
	Attachment RelayAttachment `json:"attachment"`
}

// RelayAttachment carries the base64-encoded marksheet.
type RelayAttachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     string `json:"content"`
}

// RelayResponse is the raw relay reply.
type RelayResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// NewRelayDispatcher creates a relay dispatcher. A nil client falls back to
// [http.DefaultClient], which is also the transport used to fetch tokens.
func NewRelayDispatcher(cfg shared.RelayConfig, sender Sender, client *http.Client) *RelayDispatcher {
	if client == nil {
		client = http.DefaultClient
	}

	if cfg.TokenURL != "" {
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, client)
		authed := cc.Client(ctx)
		authed.Timeout = client.Timeout
		client = authed
	}

	return &RelayDispatcher{url: cfg.URL, sender: sender, httpClient: client}
}

func (r *RelayDispatcher) Name() string { return "relay" }

// Message builds the relay request body for d.
func (r *RelayDispatcher) Message(d models.Delivery) RelayMessage {
	return RelayMessage{
		From:    r.sender.Address,
		To:      d.Address,
		Subject: Subject(d),
		Body:    Body(r.sender, d),
		Attachment: RelayAttachment{
			Filename:    d.Filename,
			ContentType: "application/pdf",
			Content:     base64.StdEncoding.EncodeToString(d.Document),
		},
	}
}

// Send posts the delivery. Any non-2xx reply is an error.
func (r *RelayDispatcher) Send(ctx context.Context, d models.Delivery) error {
	if d.Address == "" {
		return fmt.Errorf("%w: empty recipient address", shared.ErrInvalidInput)
	}

	data, err := shared.MarshalJSON(r.Message(d), false)
	if err != nil {
		return fmt.Errorf("failed to encode relay message: %w", err)
	}

	resp, err := r.Post(ctx, data)
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: relay returned %d", shared.ErrAuthFailed, resp.StatusCode)
	case resp.StatusCode == http.StatusServiceUnavailable:
		return fmt.Errorf("%w: relay returned %d", shared.ErrServiceUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: relay returned %d: %s", shared.ErrAPIRequest, resp.StatusCode, bytes.TrimSpace(resp.Body))
	}
	return nil
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (r *RelayDispatcher) Post(ctx context.Context, data []byte) (*RelayResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &RelayResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}, nil
}
