package hubapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataset-hub-service/internal/config"
	"dataset-hub-service/internal/core/domain"
	output "dataset-hub-service/internal/core/ports/output"
	"dataset-hub-service/internal/core/selection"
	"dataset-hub-service/internal/core/upload"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(&config.ClientConfig{APIURL: srv.URL + "/", Timeout: 5 * time.Second, Token: "tok"})
}

func textRequest(t *testing.T) *upload.Request {
	t.Helper()
	meta := upload.Metadata{Type: domain.DatasetTypeRaw}
	meta.SetName("My Study")
	meta.Description = "x"
	meta.Domain = "Health"
	meta.License = domain.Licenses[0]
	meta.FileType = domain.FileTypeText

	req, err := upload.Build(meta, "uid-1", map[domain.FileGroup][]selection.File{
		domain.GroupRaw: {{Name: "data.csv", Path: "/p/data.csv"}},
	}, selection.ModeFiles, time.UnixMilli(1700000000000))
	require.NoError(t, err)
	return req.WithOpener(func(string) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("a,b\n1,2\n")), nil
	})
}

func TestClient_Upload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "raw", r.FormValue("type"))
		assert.Equal(t, "uid-1", r.FormValue("uid"))
		assert.Len(t, r.MultipartForm.File["files"], 1)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(output.UploadResult{Success: true, Message: "ok", Files: []string{"u"}})
	})

	res, err := c.Upload(context.Background(), textRequest(t))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"u"}, res.Files)
}

func TestClient_ErrorBodies(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"error key", http.StatusConflict, `{"error":"Dataset name already exists"}`, "Dataset name already exists"},
		{"detail key", http.StatusBadRequest, `{"detail":"License is required"}`, "License is required"},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`, ""},
		{"detail list", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body"]}]}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Upload(context.Background(), textRequest(t))
			var apiErr *domain.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, apiErr.Message)

			msg, ok := domain.ServerMessage(err)
			assert.Equal(t, tt.message != "", ok)
			assert.Equal(t, tt.message, msg)
		})
	}
}

func TestClient_MalformedSuccessBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	_, err := c.ListPrompts(context.Background())
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusOK, apiErr.StatusCode)
}

func TestClient_TransportError(t *testing.T) {
	c := NewClient(&config.ClientConfig{APIURL: "http://127.0.0.1:1", Timeout: time.Second})

	_, _, err := c.CheckDatasetName(context.Background(), "uid-1", "x")
	require.Error(t, err)
	var apiErr *domain.APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestClient_CheckDatasetName(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/check-dataset-name/uid-1/My_Study", r.URL.Path)
		_, _ = w.Write([]byte(`{"available":false,"message":"Dataset name already exists"}`))
	})

	available, msg, err := c.CheckDatasetName(context.Background(), "uid-1", "My_Study")
	require.NoError(t, err)
	assert.False(t, available)
	assert.Equal(t, "Dataset name already exists", msg)
}

func TestClient_DatasetsByCategory(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "image", body["category"])
		_, _ = w.Write([]byte(`{"datasets":[{"dataset_id":"a"},{"dataset_id":"b"}]}`))
	})

	got, err := c.DatasetsByCategory(context.Background(), "image")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[1].ID)
}

func TestClient_SavePromptAndProfile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/prompts":
			var body output.SavePromptRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Summarize", body.Name)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"prompt_name":"Summarize","username":"alice"}`))
		case "/users/alice":
			_, _ = w.Write([]byte(`{"uid":"uid-1","username":"alice","datasets":[],"prompts":[{"prompt_name":"Summarize"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	p, err := c.SavePrompt(context.Background(), output.SavePromptRequest{Username: "alice", Name: "Summarize", Prompt: "x", Domain: "Health"})
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)

	prof, err := c.Profile(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", prof.UID)
	assert.Len(t, prof.Prompts, 1)
}

func TestClient_DeleteDataset(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/datasets/ds-1", r.URL.Path)
		assert.Equal(t, "uid-1", r.URL.Query().Get("uid"))
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, c.DeleteDataset(context.Background(), "ds-1", "uid-1"))
}

func TestConfigIdentity(t *testing.T) {
	id := NewConfigIdentity(&config.ClientConfig{UID: "uid-1", Email: "a@x.io", Name: "Ada"})
	assert.Equal(t, "uid-1", id.CurrentUserID())
	assert.Equal(t, "a@x.io", id.Email())
	assert.Equal(t, "Ada", id.DisplayName())
}
