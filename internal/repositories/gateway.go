package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"sdlc-flow/internal/config"
	"sdlc-flow/internal/logging"
)

// Caller performs a single call against the gateway
type Caller interface {
	Call(ctx context.Context, method, path string, body any) (json.RawMessage, error)
}

// FilePart is a binary body sent as a multipart form with a single file field
type FilePart struct {
	Field    string
	Filename string
	Data     []byte
}

// CallError describes a failed gateway call. Detail is empty when the
// service did not provide one.
type CallError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
	Err        error
}

func (e *CallError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s %s returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
	default:
		return fmt.Sprintf("%s %s returned status %d", e.Method, e.Path, e.StatusCode)
	}
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// FailureMessage returns the service-provided detail carried by err, or
// fallback when there is none.
func FailureMessage(err error, fallback string) string {
	var callErr *CallError
	if errors.As(err, &callErr) && callErr.Detail != "" {
		return callErr.Detail
	}
	return fallback
}

// GatewayClient handles HTTP calls to the API gateway
type GatewayClient struct {
	baseURL string
	client  *http.Client
	log     *logging.Logger
}

// NewGatewayClient creates a new gateway client
func NewGatewayClient(gatewayConfig *config.GatewayConfig, log *logging.Logger) *GatewayClient {
	return &GatewayClient{
		baseURL: strings.TrimRight(gatewayConfig.BaseURL, "/"),
		client: &http.Client{
			Timeout: time.Duration(gatewayConfig.TimeoutSeconds) * time.Second,
		},
		log: log,
	}
}

// Call issues one request and returns the raw success payload. Every failure
// is reported as a *CallError.
func (r *GatewayClient) Call(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	fail := func(statusCode int, detail string, err error) (json.RawMessage, error) {
		callErr := &CallError{Method: method, Path: path, StatusCode: statusCode, Detail: detail, Err: err}
		r.log.Printf("gateway: %v", callErr)
		return nil, callErr
	}

	reader, contentType, err := encodeBody(body)
	if err != nil {
		return fail(0, "", fmt.Errorf("failed to encode body: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return fail(0, "", fmt.Errorf("failed to create request: %w", err))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	r.log.Printf("gateway: %s %s", method, path)
	resp, err := r.client.Do(req)
	if err != nil {
		return fail(0, "", fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(resp.StatusCode, "", fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(resp.StatusCode, extractDetail(data), nil)
	}

	r.log.Printf("gateway: %s %s -> %d", method, path, resp.StatusCode)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	if !json.Valid(data) {
		return fail(resp.StatusCode, "", fmt.Errorf("response is not valid JSON"))
	}
	return json.RawMessage(data), nil
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case FilePart:
		return encodeMultipart(b)
	case *FilePart:
		return encodeMultipart(*b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

func encodeMultipart(part FilePart) (io.Reader, string, error) {
	field := part.Field
	if field == "" {
		field = "file"
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	fw, err := writer.CreateFormFile(field, part.Filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := fw.Write(part.Data); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}

// extractDetail reads the optional `detail` field of an error payload. A
// string is used as is; a list of validation errors is joined by their msg.
func extractDetail(data []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		var msgs []string
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return ""
}

// Decode unmarshals a success payload into T.
func Decode[T any](payload json.RawMessage) (*T, error) {
	var v T
	if len(payload) == 0 {
		return nil, fmt.Errorf("empty response payload")
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &v, nil
}
