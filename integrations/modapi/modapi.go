// Package modapi is the HTTP client for the backend moderation service.
package modapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/modsentry/modsentry/config"
	"github.com/modsentry/modsentry/domains/moderation"
	pkgError "github.com/modsentry/modsentry/pkg/error"
	"github.com/sirupsen/logrus"
)

const maxResponseBytes = 1 << 20

var (
	// Only the ingestion POST is bounded; the other endpoints may block for
	// as long as the backend needs to produce a decision.
	ingestClient = &http.Client{Timeout: config.APIIngestTimeout}
	httpClient   = &http.Client{}
)

type Client struct {
	baseURL string
}

func NewClient(baseURL string) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/")}
}

// IngestMessage forwards a monitored-group moderation candidate.
func (c *Client) IngestMessage(ctx context.Context, request moderation.IngestRequest) (*moderation.APIResponse, error) {
	resp := &moderation.APIResponse{}
	if err := jsonRequest(ctx, ingestClient, http.MethodPost, c.baseURL+"/ingest_message", request, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SubmitResponse forwards a moderator's menu choice.
func (c *Client) SubmitResponse(ctx context.Context, request moderation.ModeratorReplyRequest) (*moderation.APIResponse, error) {
	resp := &moderation.APIResponse{}
	if err := jsonRequest(ctx, httpClient, http.MethodPost, c.baseURL+"/moderation/response", request, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Conversation forwards a free-form direct message.
func (c *Client) Conversation(ctx context.Context, request moderation.ConversationRequest) (*moderation.APIResponse, error) {
	resp := &moderation.APIResponse{}
	if err := jsonRequest(ctx, httpClient, http.MethodPost, c.baseURL+"/conversation", request, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func jsonRequest(ctx context.Context, client *http.Client, method, url string, body interface{}, dest interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode >= 500 {
		return pkgError.InternalServerError(fmt.Sprintf("request failed: status=%d body=%s", resp.StatusCode, string(data)))
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("request failed: status=%d body=%s", resp.StatusCode, string(data))
	}

	if dest != nil && len(data) > 0 {
		if err := json.Unmarshal(data, dest); err != nil {
			logrus.WithError(err).Debugf("[MODAPI] unparseable response from %s", url)
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
