package hubapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"dataset-hub-service/internal/config"
	"dataset-hub-service/internal/core/domain"
	output "dataset-hub-service/internal/core/ports/output"
	"dataset-hub-service/internal/core/upload"
)

const maxErrorBody = 64 << 10

// Client talks to the dataset hub REST API. Timeouts are applied per
// request so folder uploads can run longer than everything else.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	timeout    time.Duration
}

var _ output.HubAPI = (*Client)(nil)

func NewClient(cfg *config.ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimSuffix(cfg.APIURL, "/"),
		token:      cfg.Token,
		timeout:    timeout,
	}
}

type call struct {
	op          string
	method      string
	path        string
	body        io.Reader
	contentType string
	timeout     time.Duration
}

func jsonCall(op, method, path string, payload any) (call, error) {
	c := call{op: op, method: method, path: path}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return c, fmt.Errorf("%s: encode request: %w", op, err)
		}
		c.body = bytes.NewReader(b)
		c.contentType = "application/json"
	}
	return c, nil
}

func (c *Client) do(ctx context.Context, req call, out any) error {
	timeout := c.timeout
	if req.timeout > timeout {
		timeout = req.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reqURL := c.baseURL + req.path
	httpReq, err := http.NewRequestWithContext(ctx, req.method, reqURL, req.body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", req.op, err)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	log.WithFields(log.Fields{
		"method": req.method,
		"url":    reqURL,
	}).Debug("calling hub api")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s: %w", req.op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(req.op, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.WithError(err).WithField("op", req.op).Debug("malformed hub api response")
		return &domain.APIError{StatusCode: resp.StatusCode, Op: req.op}
	}
	return nil
}

// decodeError prefers the server's own message from {"error"} or
// {"detail"} bodies.
func decodeError(op string, resp *http.Response) error {
	apiErr := &domain.APIError{StatusCode: resp.StatusCode, Op: op}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload struct {
		Error   string `json:"error"`
		Detail  any    `json:"detail"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		switch {
		case payload.Error != "":
			apiErr.Message = payload.Error
		case payload.Detail != nil:
			if s, ok := payload.Detail.(string); ok {
				apiErr.Message = s
			}
		case payload.Message != "":
			apiErr.Message = payload.Message
		}
	}
	return apiErr
}

// ============================================================================
// Datasets
// ============================================================================

func (c *Client) CheckDatasetName(ctx context.Context, uid, name string) (bool, string, error) {
	path := "/check-dataset-name/" + url.PathEscape(uid) + "/" + url.PathEscape(name)
	var out output.NameCheck
	if err := c.do(ctx, call{op: "check dataset name", method: http.MethodGet, path: path}, &out); err != nil {
		return false, "", err
	}
	return out.Available, out.Message, nil
}

func (c *Client) Upload(ctx context.Context, req *upload.Request) (*output.UploadResult, error) {
	body, contentType := req.Encode()
	defer body.Close()

	var out output.UploadResult
	err := c.do(ctx, call{
		op:          "upload dataset",
		method:      http.MethodPost,
		path:        req.Path,
		body:        body,
		contentType: contentType,
		timeout:     req.Timeout(),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteDataset sends uid as the owner for servers running without auth.
func (c *Client) DeleteDataset(ctx context.Context, id, uid string) error {
	path := "/datasets/" + url.PathEscape(id) + "?" + url.Values{"uid": {uid}}.Encode()
	return c.do(ctx, call{op: "delete dataset", method: http.MethodDelete, path: path}, nil)
}

func (c *Client) DatasetsByCategory(ctx context.Context, category string) ([]*domain.Dataset, error) {
	req, err := jsonCall("list datasets", http.MethodPost, "/dataset-category", map[string]string{"category": category})
	if err != nil {
		return nil, err
	}
	var out struct {
		Datasets []*domain.Dataset `json:"datasets"`
	}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out.Datasets, nil
}

func (c *Client) LogClick(ctx context.Context, click output.ClickRequest) (*domain.Dataset, error) {
	req, err := jsonCall("log dataset click", http.MethodPost, "/dataset-click", click)
	if err != nil {
		return nil, err
	}
	var out domain.Dataset
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ============================================================================
// Prompts
// ============================================================================

func (c *Client) ListPrompts(ctx context.Context) ([]*domain.Prompt, error) {
	var out []*domain.Prompt
	if err := c.do(ctx, call{op: "list prompts", method: http.MethodGet, path: "/prompts"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SavePrompt(ctx context.Context, p output.SavePromptRequest) (*domain.Prompt, error) {
	req, err := jsonCall("save prompt", http.MethodPost, "/prompts", p)
	if err != nil {
		return nil, err
	}
	var out domain.Prompt
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ============================================================================
// Users
// ============================================================================

func (c *Client) RegisterUID(ctx context.Context, uid, email, name string) (*domain.User, error) {
	req, err := jsonCall("register uid", http.MethodPost, "/register-uid",
		map[string]string{"uid": uid, "email": email, "name": name})
	if err != nil {
		return nil, err
	}
	var out domain.User
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Avatar(ctx context.Context, uid string) (string, error) {
	var out struct {
		Avatar string `json:"avatar"`
	}
	if err := c.do(ctx, call{op: "get avatar", method: http.MethodGet, path: "/user-avatar/" + url.PathEscape(uid)}, &out); err != nil {
		return "", err
	}
	return out.Avatar, nil
}

func (c *Client) Profile(ctx context.Context, username string) (*domain.Profile, error) {
	return c.profile(ctx, "/users/"+url.PathEscape(username))
}

func (c *Client) ProfileByUID(ctx context.Context, uid string) (*domain.Profile, error) {
	return c.profile(ctx, "/user-profile/"+url.PathEscape(uid))
}

func (c *Client) profile(ctx context.Context, path string) (*domain.Profile, error) {
	var out domain.Profile
	if err := c.do(ctx, call{op: "get profile", method: http.MethodGet, path: path}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
