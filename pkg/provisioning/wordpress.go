package provisioning

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// WordPressClient the academy website, through the WordPress REST API
type WordPressClient struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

// NewWordPressClient creates a client using basic auth (application password).
func NewWordPressClient(baseURL, username, password string, httpClient *http.Client) *WordPressClient {
	return &WordPressClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		http:     httpClient,
	}
}

func (c *WordPressClient) Name() string { return "wordpress" }

func (c *WordPressClient) usersURL() string {
	return c.baseURL + "/wp-json/wp/v2/users"
}

func (c *WordPressClient) configured() bool {
	return c.baseURL != "" && c.username != "" && c.password != ""
}

// CreateAccount registers a subscriber; 200 or 201 on success.
func (c *WordPressClient) CreateAccount(ctx context.Context, p Profile) Result {
	if !c.configured() {
		return failure("configuration missing")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.usersURL(), nil)
	if err != nil {
		return failure("build request: %v", err)
	}
	req.SetBasicAuth(c.username, c.password)

	body := map[string]any{
		"username":   p.Username,
		"email":      p.Email,
		"password":   p.Password,
		"first_name": p.FirstName,
		"last_name":  p.LastName,
		"roles":      []string{"subscriber"},
	}
	resp, raw, err := doJSON(c.http, req, body)
	if err != nil {
		return failure("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return failure("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return Result{Success: true, Data: decodeObject(raw), Message: "account created"}
}

// DeleteAccount removes a user by numeric id, or by username/email after a search.
// Posts are reassigned to user 1.
func (c *WordPressClient) DeleteAccount(ctx context.Context, identifier string) Result {
	if !c.configured() {
		return failure("configuration missing")
	}

	userID := identifier
	if _, err := strconv.Atoi(identifier); err != nil {
		id, res := c.findUserID(ctx, identifier)
		if !res.Success {
			return res
		}
		userID = id
	}

	endpoint := fmt.Sprintf("%s/%s?force=true&reassign=1", c.usersURL(), url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return failure("build request: %v", err)
	}
	req.SetBasicAuth(c.username, c.password)

	resp, raw, err := doJSON(c.http, req, nil)
	if err != nil {
		return failure("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return failure("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return Result{Success: true, Data: decodeObject(raw), Message: "account deleted"}
}

func (c *WordPressClient) findUserID(ctx context.Context, search string) (string, Result) {
	endpoint := c.usersURL() + "?search=" + url.QueryEscape(search)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", failure("build request: %v", err)
	}
	req.SetBasicAuth(c.username, c.password)

	resp, raw, err := doJSON(c.http, req, nil)
	if err != nil {
		return "", failure("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", failure("user search returned status %d", resp.StatusCode)
	}

	var users []struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(raw, &users); err != nil {
		return "", failure("decode user search: %v", err)
	}
	if len(users) == 0 {
		return "", failure("user %q not found", search)
	}
	return strconv.Itoa(users[0].ID), Result{Success: true}
}
