package provisioning

import (
	"context"
	"net/http"
	"strings"
)

// OtherAppClient the academy's companion application
type OtherAppClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewOtherAppClient creates a client authenticated with a bearer API key.
func NewOtherAppClient(baseURL, apiKey string, httpClient *http.Client) *OtherAppClient {
	return &OtherAppClient{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, http: httpClient}
}

func (c *OtherAppClient) Name() string { return "other_app" }

// CreateAccount POST /users/create, 201 on success.
func (c *OtherAppClient) CreateAccount(ctx context.Context, p Profile) Result {
	if c.baseURL == "" || c.apiKey == "" {
		return failure("configuration missing")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users/create", nil)
	if err != nil {
		return failure("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, raw, err := doJSON(c.http, req, p)
	if err != nil {
		return failure("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return failure("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return Result{Success: true, Data: decodeObject(raw), Message: "account created"}
}

// DeleteAccount DELETE /users/delete with {"identifier": ...}, 200 or 204 on success.
func (c *OtherAppClient) DeleteAccount(ctx context.Context, identifier string) Result {
	if c.baseURL == "" || c.apiKey == "" {
		return failure("configuration missing")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/users/delete", nil)
	if err != nil {
		return failure("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, raw, err := doJSON(c.http, req, map[string]string{"identifier": identifier})
	if err != nil {
		return failure("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return failure("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return Result{Success: true, Data: decodeObject(raw), Message: "account deleted"}
}
