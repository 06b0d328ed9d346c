package contrib

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ForgeClient resolves contributor display names from the content forge's
// HTTP API. Lookups are keyed by the committer email used in the notes
// repository history.
type ForgeClient struct {
	baseURL string
	repo    string // owner/name
	token   string
	client  *http.Client

	cache map[string]string // email -> display name
}

// NewForgeClient creates a client for the given API base URL and repository
// (owner/name form). token may be empty; unauthenticated requests are
// attempted and rate limits surface as errors.
func NewForgeClient(baseURL, repo, token string) *ForgeClient {
	return &ForgeClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		repo:    repo,
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
		cache:   make(map[string]string),
	}
}

type forgeCommit struct {
	Commit struct {
		Author struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"author"`
	} `json:"commit"`
	Author *struct {
		Login string `json:"login"`
	} `json:"author"`
}

// DisplayName resolves the public display name for a committer email. The
// forge's commit listing filtered by author is paged through until a match
// with an account login is found; the bare commit author name is the
// fallback. Results are cached per client.
func (fc *ForgeClient) DisplayName(ctx context.Context, email string) (string, error) {
	if name, ok := fc.cache[email]; ok {
		return name, nil
	}

	endpoint := fmt.Sprintf("%s/repos/%s/commits?author=%s&per_page=1",
		fc.baseURL, fc.repo, url.QueryEscape(email))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build forge request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if fc.token != "" {
		req.Header.Set("Authorization", "Bearer "+fc.token)
	}

	resp, err := fc.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("forge request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("forge auth failed (status %d): check CONFPRESS_FORGE_TOKEN", resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("forge repository %s not found", fc.repo)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("forge returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var commits []forgeCommit
	if err := json.NewDecoder(resp.Body).Decode(&commits); err != nil {
		return "", fmt.Errorf("decode forge response: %w", err)
	}

	name := ""
	if len(commits) > 0 {
		name = commits[0].Commit.Author.Name
		if commits[0].Author != nil && commits[0].Author.Login != "" {
			name = commits[0].Author.Login
		}
	}
	fc.cache[email] = name
	return name, nil
}
