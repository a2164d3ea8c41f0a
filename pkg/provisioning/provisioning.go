// Package provisioning creates and removes accounts for approved applicants
// on the academy's other systems.
//
// Every call is best effort: failures come back as a Result with Success=false
// and never as a Go error.
package provisioning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"acadef/backend/config"
)

// Profile account to create remotely
type Profile struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// Result outcome of one remote call
type Result struct {
	Success bool
	Data    map[string]any
	Message string
}

// Provisioner a remote system accounts are mirrored to
type Provisioner interface {
	Name() string
	CreateAccount(ctx context.Context, p Profile) Result
	DeleteAccount(ctx context.Context, identifier string) Result
}

// NewProvisioners returns a client for every configured remote system.
func NewProvisioners(cfg *config.IntegrationConfig) []Provisioner {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	var out []Provisioner
	if cfg.OtherAppURL != "" && cfg.OtherAppAPIKey != "" {
		out = append(out, NewOtherAppClient(cfg.OtherAppURL, cfg.OtherAppAPIKey, httpClient))
	}
	if cfg.WordPressURL != "" && cfg.WordPressUsername != "" && cfg.WordPressPassword != "" {
		out = append(out, NewWordPressClient(cfg.WordPressURL, cfg.WordPressUsername, cfg.WordPressPassword, httpClient))
	}
	return out
}

func failure(format string, args ...any) Result {
	return Result{Success: false, Message: fmt.Sprintf(format, args...)}
}

func doJSON(client *http.Client, req *http.Request, body any) (*http.Response, []byte, error) {
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, nil, err
		}
		req.Body = io.NopCloser(bytes.NewReader(payload))
		req.ContentLength = int64(len(payload))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp, nil, err
	}
	return resp, raw, nil
}

func decodeObject(raw []byte) map[string]any {
	var data map[string]any
	if len(raw) > 0 && json.Unmarshal(raw, &data) == nil {
		return data
	}
	return nil
}
