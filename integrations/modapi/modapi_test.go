package modapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/modsentry/modsentry/domains/moderation"
	pkgError "github.com/modsentry/modsentry/pkg/error"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func swapClients(t *testing.T, rt roundTripperFunc) {
	t.Helper()
	origIngest, orig := ingestClient, httpClient
	t.Cleanup(func() {
		ingestClient, httpClient = origIngest, orig
	})
	ingestClient = &http.Client{Transport: rt}
	httpClient = &http.Client{Transport: rt}
}

func TestIngestMessage(t *testing.T) {
	ctx := context.Background()
	client := NewClient("http://moderation.test/")

	var (
		gotMethod string
		gotURL    string
		gotBody   []byte
	)

	swapClients(t, func(req *http.Request) (*http.Response, error) {
		gotMethod = req.Method
		gotURL = req.URL.String()
		if req.Body != nil {
			b, _ := io.ReadAll(req.Body)
			gotBody = b
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader([]byte(`{"instructions": {"delete_message": true, "message_key": {"id": "ABC", "remoteJid": "g@g.us", "fromMe": false}}}`))),
			Header:     make(http.Header),
		}, nil
	})

	resp, err := client.IngestMessage(ctx, moderation.IngestRequest{
		Phone:       "5219991234567",
		RealPhone:   "5219991234567",
		Name:        "Aziel",
		ChatID:      "120363025246125486@g.us",
		IsGroup:     true,
		MessageType: moderation.TypeText,
		Content:     "vendo celular",
	})
	if err != nil {
		t.Fatalf("IngestMessage() unexpected error: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Fatalf("expected POST, got %q", gotMethod)
	}
	if gotURL != "http://moderation.test/ingest_message" {
		t.Fatalf("unexpected URL: %q", gotURL)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("failed to unmarshal body: %v", err)
	}
	if v, ok := payload["phone"].(string); !ok || v != "5219991234567" {
		t.Fatalf("unexpected phone: %#v", payload["phone"])
	}
	if v, ok := payload["message_type"].(string); !ok || v != "text" {
		t.Fatalf("unexpected message_type: %#v", payload["message_type"])
	}
	if v, ok := payload["is_group"].(bool); !ok || !v {
		t.Fatalf("unexpected is_group: %#v", payload["is_group"])
	}

	batch, err := moderation.ParseInstructionBatch(resp.Instructions)
	if err != nil {
		t.Fatalf("ParseInstructionBatch() unexpected error: %v", err)
	}
	if len(batch) != 1 || batch[0].MessageKey == nil || batch[0].MessageKey.ID != "ABC" {
		t.Fatalf("unexpected instructions: %#v", batch)
	}
}

func TestSubmitResponseEndpointAndBody(t *testing.T) {
	ctx := context.Background()
	client := NewClient("http://moderation.test")

	var gotURL string
	var gotBody []byte
	swapClients(t, func(req *http.Request) (*http.Response, error) {
		gotURL = req.URL.String()
		if req.Body != nil {
			b, _ := io.ReadAll(req.Body)
			gotBody = b
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader([]byte(`{}`))),
			Header:     make(http.Header),
		}, nil
	})

	if _, err := client.SubmitResponse(ctx, moderation.ModeratorReplyRequest{Phone: "555", Response: "2"}); err != nil {
		t.Fatalf("SubmitResponse() unexpected error: %v", err)
	}
	if gotURL != "http://moderation.test/moderation/response" {
		t.Fatalf("unexpected URL: %q", gotURL)
	}
	if string(gotBody) != `{"phone":"555","response":"2"}` {
		t.Fatalf("unexpected body: %s", gotBody)
	}
}

func TestConversationNon2xxIsError(t *testing.T) {
	ctx := context.Background()
	client := NewClient("http://moderation.test")

	swapClients(t, func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusBadGateway,
			Body:       io.NopCloser(bytes.NewReader([]byte(`backend down`))),
			Header:     make(http.Header),
		}, nil
	})

	_, err := client.Conversation(ctx, moderation.ConversationRequest{Phone: "555", Message: "hola"})
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	var srvErr pkgError.InternalServerError
	if !errors.As(err, &srvErr) {
		t.Fatalf("expected InternalServerError for 5xx, got %T: %v", err, err)
	}
}

func TestConversation4xxIsPlainError(t *testing.T) {
	ctx := context.Background()
	client := NewClient("http://moderation.test")

	swapClients(t, func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusUnprocessableEntity,
			Body:       io.NopCloser(bytes.NewReader([]byte(`{"detail": "bad payload"}`))),
			Header:     make(http.Header),
		}, nil
	})

	_, err := client.Conversation(ctx, moderation.ConversationRequest{Phone: "555", Message: "hola"})
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	var srvErr pkgError.InternalServerError
	if errors.As(err, &srvErr) {
		t.Fatalf("4xx should not map to InternalServerError: %v", err)
	}
}
