package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// apiClient — минимальный клиент HTTP API.
type apiClient struct {
	baseURL string
	token   string
	hc      *http.Client
}

func newAPIClient(baseURL, token string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		hc:      &http.Client{},
	}
}

// APIError — ответ сервера с конвертом ошибки.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
	if e.RequestID != "" {
		msg += " (request_id " + e.RequestID + ")"
	}
	return msg
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type generateResponse struct {
	Result string `json:"result"`
}

func (c *apiClient) login(ctx context.Context, username, password string) (*tokenResponse, []byte, error) {
	form := url.Values{"username": {username}, "password": {password}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out tokenResponse
	raw, err := c.do(req, &out)
	if err != nil {
		return nil, nil, err
	}

	return &out, raw, nil
}

func (c *apiClient) generate(ctx context.Context, kind string, fields map[string]string) (*generateResponse, []byte, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate_orange_"+kind, bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	var out generateResponse
	raw, err := c.do(req, &out)
	if err != nil {
		return nil, nil, err
	}

	return &out, raw, nil
}

func (c *apiClient) conversations(ctx context.Context, q url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/conversations?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	return c.do(req, nil)
}

func (c *apiClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// do выполняет запрос; не-2xx разбирается в *APIError.
func (c *apiClient) do(req *http.Request, out any) ([]byte, error) {
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var env struct {
			Error struct {
				Code      string `json:"code"`
				Message   string `json:"message"`
				RequestID string `json:"request_id"`
			} `json:"error"`
		}
		apiErr := &APIError{Status: resp.StatusCode, Code: "http_error", Message: strings.TrimSpace(string(raw))}
		if json.Unmarshal(raw, &env) == nil && env.Error.Code != "" {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.RequestID = env.Error.RequestID
		}
		return nil, apiErr
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}

	return raw, nil
}

var errNoToken = errors.New("no token: pass --token or set " + EnvToken + " (see `orangectl login`)")
