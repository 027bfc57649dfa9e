package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sdlc-flow/internal/config"
	"sdlc-flow/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *GatewayClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewGatewayClient(&config.GatewayConfig{BaseURL: server.URL + "/"}, nil)
}

func TestCallSendsJSONAndReturnsPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/project-api/projects/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body models.CreateProjectRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Acme", body.Name)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 42, "name": "Acme"}`))
	})

	payload, err := client.Call(context.Background(), http.MethodPost, "/project-api/projects/", models.CreateProjectRequest{Name: "Acme"})
	require.NoError(t, err)

	project, err := Decode[models.Project](payload)
	require.NoError(t, err)
	assert.Equal(t, "42", project.ID.String())
	assert.Equal(t, "Acme", project.Name)
}

func TestCallSendsMultipartFile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "spec.pdf", header.Filename)
		assert.Equal(t, "%PDF-1.4", string(data))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"filename": "spec.pdf", "location": "s3://bucket/spec.pdf"}`))
	})

	payload, err := client.Call(context.Background(), http.MethodPost, "/projects/42/documents/",
		FilePart{Filename: "spec.pdf", Data: []byte("%PDF-1.4")})
	require.NoError(t, err)

	upload, err := Decode[models.UploadResponse](payload)
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/spec.pdf", upload.Location)
}

func TestCallCapturesDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail": "Project with name 'Acme' already exists."}`))
	})

	_, err := client.Call(context.Background(), http.MethodPost, "/projects/", models.CreateProjectRequest{Name: "Acme"})
	require.Error(t, err)

	var callErr *CallError
	require.True(t, errors.As(err, &callErr))
	assert.Equal(t, http.StatusBadRequest, callErr.StatusCode)
	assert.Equal(t, "Project with name 'Acme' already exists.", FailureMessage(err, "fallback"))
}

func TestCallJoinsValidationDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail": [{"loc": ["body", "name"], "msg": "field required"}, {"msg": "too short"}]}`))
	})

	_, err := client.Call(context.Background(), http.MethodPost, "/projects/", map[string]string{})
	assert.Equal(t, "field required; too short", FailureMessage(err, "fallback"))
}

func TestCallFallsBackWithoutDetail(t *testing.T) {
	cases := map[string]string{
		"no body":        ``,
		"not json":       `<html>Bad Gateway</html>`,
		"no detail":      `{"error": "boom"}`,
		"null detail":    `{"detail": null}`,
		"numeric detail": `{"detail": 7}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				w.Write([]byte(body))
			})

			_, err := client.Call(context.Background(), http.MethodGet, "/projects/", nil)
			require.Error(t, err)
			assert.Equal(t, "An unexpected error occurred.", FailureMessage(err, "An unexpected error occurred."))
		})
	}
}

func TestCallTransportFailureUsesFallback(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client := NewGatewayClient(&config.GatewayConfig{BaseURL: server.URL}, nil)
	_, err := client.Call(context.Background(), http.MethodGet, "/projects/", nil)
	require.Error(t, err)

	var callErr *CallError
	require.True(t, errors.As(err, &callErr))
	assert.Equal(t, 0, callErr.StatusCode)
	assert.Equal(t, "generic", FailureMessage(err, "generic"))
}

func TestCallRejectsInvalidSuccessPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	_, err := client.Call(context.Background(), http.MethodGet, "/projects/", nil)
	assert.Error(t, err)
}

func TestCallEmptySuccessBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	payload, err := client.Call(context.Background(), http.MethodPost, "/projects/1/ingest-document", nil)
	require.NoError(t, err)
	assert.Nil(t, payload)

	_, err = Decode[models.Project](payload)
	assert.Error(t, err)
}

func TestFailureMessageIgnoresForeignErrors(t *testing.T) {
	assert.Equal(t, "fallback", FailureMessage(errors.New("dial tcp: refused"), "fallback"))
	assert.Equal(t, "fallback", FailureMessage(nil, "fallback"))
}
