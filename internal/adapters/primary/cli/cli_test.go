package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataset-hub-service/internal/core/domain"
	"dataset-hub-service/internal/core/submission"
)

func run(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--api-url", srv.URL}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestRootCmd_Help(t *testing.T) {
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"upload", "--help"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "--folders")
	assert.Contains(t, out.String(), "HUB_API_URL")
}

func TestDatasetsCmd_SortsAndPages(t *testing.T) {
	now := time.Now()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dataset-category", r.URL.Path)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "audio", body["category"])
		writeJSON(w, http.StatusOK, map[string]any{"datasets": []*domain.Dataset{
			{ID: "2", Name: "Zebra_Calls", Username: "bob", FileType: domain.FileTypeAudio, UpdatedAt: now},
			{ID: "1", Name: "Bird_Songs", Username: "alice", FileType: domain.FileTypeAudio, UpdatedAt: now.Add(-time.Hour)},
		}})
	}))
	defer srv.Close()

	out, err := run(t, srv, "datasets", "--category", "Audio", "--sort", "name")

	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "Bird_Songs"), strings.Index(out, "Zebra_Calls"))
	assert.Contains(t, out, "page 1 of 1 (2 datasets)")
}

func TestUploadCmd(t *testing.T) {
	dir := t.TempDir()
	csv := filepath.Join(dir, "train.csv")
	require.NoError(t, os.WriteFile(csv, []byte("a,b\n1,2\n"), 0o600))

	var uploads atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/register-uid":
			writeJSON(w, http.StatusOK, domain.User{UID: "uid-1", Username: "alice"})
		case r.URL.Path == "/check-dataset-name/uid-1/My_Study":
			writeJSON(w, http.StatusOK, map[string]any{"available": true, "message": "Dataset name is available"})
		case r.URL.Path == "/upload":
			uploads.Add(1)
			if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
				return
			}
			assert.Equal(t, "raw", r.FormValue("type"))
			assert.Equal(t, "uid-1", r.FormValue("uid"))
			assert.Len(t, r.MultipartForm.File["files"], 1)
			writeJSON(w, http.StatusCreated, map[string]any{"success": true, "message": "ok", "files": []string{"u"}})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	out, err := run(t, srv, "--uid", "uid-1", "upload", "My Study",
		"--description", "d", "--domain", "Healthcare", "--file-type", "text", "--raw", csv)

	require.NoError(t, err, out)
	assert.Equal(t, int32(1), uploads.Load())
	assert.Contains(t, out, submission.UploadSuccess)
	assert.Contains(t, out, "dataset My_Study is listed at /alice")
}

func TestUploadCmd_NameTaken(t *testing.T) {
	dir := t.TempDir()
	csv := filepath.Join(dir, "train.csv")
	require.NoError(t, os.WriteFile(csv, []byte("a,b\n"), 0o600))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/check-dataset-name/") {
			writeJSON(w, http.StatusOK, map[string]any{"available": false, "message": "Dataset name already exists"})
			return
		}
		t.Errorf("unexpected request %s", r.URL.Path)
	}))
	defer srv.Close()

	_, err := run(t, srv, "--uid", "uid-1", "--username", "alice", "upload", "My Study",
		"--description", "d", "--domain", "Healthcare", "--raw", csv)

	require.Error(t, err)
	assert.Equal(t, submission.NameConflictMessage, err.Error())
}

func TestUploadCmd_RejectsWrongExtension(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(img, []byte("x"), 0o600))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	}))
	defer srv.Close()

	_, err := run(t, srv, "--uid", "uid-1", "--username", "alice", "upload", "x", "--file-type", "text", "--raw", img)

	var fileErr *domain.InvalidFileTypeError
	assert.ErrorAs(t, err, &fileErr)
}

func TestPromptsSaveCmd_InvalidName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	}))
	defer srv.Close()

	_, err := run(t, srv, "--uid", "uid-1", "--username", "alice", "prompts", "save", "bad-name", "--domain", "Health", "--body", "x")

	require.Error(t, err)
	assert.Equal(t, domain.ErrInvalidPromptName.Error(), err.Error())
}

func TestPromptsSaveCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/prompts", r.URL.Path)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "My_Prompt", body["prompt_name"])
		assert.Equal(t, "alice", body["username"])
		writeJSON(w, http.StatusCreated, domain.Prompt{Name: "My_Prompt"})
	}))
	defer srv.Close()

	out, err := run(t, srv, "--uid", "uid-1", "--username", "alice", "prompts", "save", "My Prompt", "--domain", "Health", "--body", "Summarize")

	require.NoError(t, err)
	assert.Contains(t, out, submission.PromptSaveSuccess)
	assert.Contains(t, out, "listed at /alice")
}

func TestCheckNameCmd_RequiresUID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	_, err := run(t, srv, "check-name", "x")

	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestOpenCmd_ServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "dataset not found"})
	}))
	defer srv.Close()

	_, err := run(t, srv, "open", "alice", "Gone")

	msg, ok := domain.ServerMessage(err)
	require.True(t, ok)
	assert.Equal(t, "dataset not found", msg)
}
