package issues

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultPageSize = 100

// FixedBugsJQL returns the query selecting every fixed bug of project, oldest first.
func FixedBugsJQL(project string) string {
	return fmt.Sprintf("project = %s AND issuetype = Bug AND status in (Resolved, Closed) "+
		"AND resolution = Fixed ORDER BY created ASC", project)
}

// JiraClient fetches issues through the Jira REST search API.
type JiraClient struct {
	BaseURL    string
	Username   string
	APIToken   string
	PageSize   int
	HTTPClient *http.Client
	Logger     *slog.Logger
	// OnProgress is called after every page with the issues fetched so far and the total.
	OnProgress func(fetched, total int)
}

// NewJiraClient creates a client for the Jira instance at baseURL.
// Credentials are optional; public instances accept anonymous searches.
func NewJiraClient(baseURL, username, apiToken string) *JiraClient {
	return &JiraClient{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Username: username,
		APIToken: apiToken,
		PageSize: defaultPageSize,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type searchResponse struct {
	StartAt    int           `json:"startAt"`
	MaxResults int           `json:"maxResults"`
	Total      int           `json:"total"`
	Issues     []searchIssue `json:"issues"`
}

type searchIssue struct {
	Key    string `json:"key"`
	Fields struct {
		Created string `json:"created"`
	} `json:"fields"`
}

// FetchFixedBugs returns every fixed bug of project.
func (c *JiraClient) FetchFixedBugs(ctx context.Context, project string) (Store, error) {
	return c.Search(ctx, FixedBugsJQL(project))
}

// Search pages through the results of jql until all issues are fetched.
// Any failure discards the partial result.
func (c *JiraClient) Search(ctx context.Context, jql string) (Store, error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pageSize := c.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	store := Store{}
	for startAt, total := 0, 1; startAt < total; startAt += pageSize {
		page, err := c.searchPage(ctx, jql, startAt, pageSize)
		if err != nil {
			return nil, err
		}
		total = page.Total
		for _, is := range page.Issues {
			store.Add(is.Key, is.Fields.Created)
		}
		logger.Debug("fetched issue page", "startAt", startAt, "issues", len(store), "total", total)
		if c.OnProgress != nil {
			c.OnProgress(len(store), total)
		}
		if len(page.Issues) == 0 {
			break
		}
	}
	return store, nil
}

func (c *JiraClient) searchPage(ctx context.Context, jql string, startAt, maxResults int) (*searchResponse, error) {
	q := url.Values{}
	q.Set("jql", jql)
	q.Set("startAt", strconv.Itoa(startAt))
	q.Set("maxResults", strconv.Itoa(maxResults))
	q.Set("fields", "created")
	endpoint := fmt.Sprintf("%s/rest/api/2/search?%s", c.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.Username != "" || c.APIToken != "" {
		req.SetBasicAuth(c.Username, c.APIToken)
	}
	req.Header.Set("Accept", "application/json")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("jira search failed with status: %d, body: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var page searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &page, nil
}
