// Package storcycle implements a client for the Spectra Logic StorCycle
// OpenAPI: token authentication, paginated job status listings, and project
// management for ScanAndArchive datasets.
package storcycle

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"spectrabrainz/internal/config"
	"spectrabrainz/internal/util"
)

// tokenTTL bounds how long a bearer token is reused before logging in again.
const tokenTTL = 15 * time.Minute

// Client talks to a StorCycle OpenAPI endpoint. It owns its token cache;
// there is no package-level session state.
type Client struct {
	http       *resty.Client
	username   string
	password   string
	pageSize   int
	maxRetries int
	limiter    *util.RateLimiter
	log        *slog.Logger

	mu      sync.Mutex
	token   string
	tokenAt time.Time
}

// New creates a Client for the given API configuration and credentials.
func New(cfg config.API, creds *config.Credentials, log *slog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second).
		SetHeader("accept", "application/json")

	return &Client{
		http:       httpClient,
		username:   creds.Username,
		password:   creds.Password,
		pageSize:   cfg.PageSize,
		maxRetries: cfg.MaxRetries,
		limiter:    util.NewRateLimiter(cfg.RateLimitPerMin),
		log:        log.With("component", "storcycle"),
	}
}

// Login requests a fresh bearer token. Most callers should rely on the
// cached token instead; Login always hits the API.
func (c *Client) Login(ctx context.Context) (string, error) {
	var tr tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(tokenRequest{Username: c.username, Password: c.password}).
		SetResult(&tr).
		Post("/openapi/tokens")
	if err != nil {
		return "", fmt.Errorf("requesting token: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("token request failed: %s", resp.Status())
	}
	if tr.Token == "" {
		return "", fmt.Errorf("no token field in authentication response")
	}
	return tr.Token, nil
}

// sessionToken returns a cached token, logging in again once the TTL lapses.
func (c *Client) sessionToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Since(c.tokenAt) < tokenTTL {
		return c.token, nil
	}

	token, err := c.Login(ctx)
	if err != nil {
		return "", err
	}
	c.token = token
	c.tokenAt = time.Now()
	return token, nil
}

// authRequest builds a request carrying the session token, honouring the
// request rate limit.
func (c *Client) authRequest(ctx context.Context) (*resty.Request, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	token, err := c.sessionToken(ctx)
	if err != nil {
		return nil, err
	}
	return c.http.R().SetContext(ctx).SetAuthToken(token), nil
}

// ListJobStatus fetches every job status entry, following skip/limit
// pagination until TotalResults is exhausted. A server that fails to advance
// ResultOffset is reported as an error rather than looped on.
func (c *Client) ListJobStatus(ctx context.Context, includeAll bool) ([]JobStatusEntry, error) {
	var all []JobStatusEntry
	offset := 0
	totalResults := -1

	for {
		req, err := c.authRequest(ctx)
		if err != nil {
			return nil, err
		}

		var page jobStatusPage
		resp, err := req.
			SetQueryParams(map[string]string{
				"skip":       strconv.Itoa(offset),
				"limit":      strconv.Itoa(c.pageSize),
				"includeAll": strconv.FormatBool(includeAll),
			}).
			SetResult(&page).
			Get("/openapi/jobStatus")
		if err != nil {
			return nil, fmt.Errorf("listing job status at offset %d: %w", offset, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("job status listing failed at offset %d: %s", offset, resp.Status())
		}

		if totalResults < 0 && page.TotalResults > 0 {
			totalResults = page.TotalResults
		}

		if len(page.Data) == 0 {
			break
		}
		all = append(all, page.Data...)

		// Trust the requested offset when the server omits the field.
		resultOffset := offset
		if page.ResultOffset != nil {
			resultOffset = *page.ResultOffset
		}
		next := resultOffset + len(page.Data)
		if next <= offset {
			return nil, fmt.Errorf("job status pagination did not advance past offset %d", offset)
		}
		if totalResults >= 0 && next >= totalResults {
			break
		}
		offset = next
	}

	c.log.Debug("job status listing complete", "entries", len(all))
	return all, nil
}

// GetJobStatus fetches the current status entry for a single job, retrying
// transient failures with exponential backoff.
func (c *Client) GetJobStatus(ctx context.Context, job string) (*JobStatusEntry, error) {
	var entry JobStatusEntry

	err := util.Retry(ctx, c.maxRetries, time.Second, func() error {
		req, err := c.authRequest(ctx)
		if err != nil {
			return err
		}
		resp, err := req.
			SetResult(&entry).
			SetPathParam("job", job).
			Get("/openapi/jobStatus/{job}")
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("job status request failed: %s", resp.Status())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetching status for job %s: %w", job, err)
	}
	if entry.Job == "" {
		entry.Job = job
	}
	return &entry, nil
}

// ProjectExists reports whether the named project exists. A 404 is a clean
// "no"; any other error status fails the call.
func (c *Client) ProjectExists(ctx context.Context, name string) (bool, error) {
	req, err := c.authRequest(ctx)
	if err != nil {
		return false, err
	}
	resp, err := req.
		SetPathParam("name", name).
		Get("/openapi/projects/{name}")
	if err != nil {
		return false, fmt.Errorf("checking project %s: %w", name, err)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("project check for %s failed: %s", name, resp.Status())
	}
}

// GetProject retrieves a single project object.
func (c *Client) GetProject(ctx context.Context, name string) (*Project, error) {
	req, err := c.authRequest(ctx)
	if err != nil {
		return nil, err
	}

	var project Project
	resp, err := req.
		SetResult(&project).
		SetPathParam("name", name).
		Get("/openapi/projects/{name}")
	if err != nil {
		return nil, fmt.Errorf("fetching project %s: %w", name, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("project request for %s failed: %s", name, resp.Status())
	}
	return &project, nil
}

// CreateArchiveProject creates a ScanAndArchive project targeting the BIL
// published-data share and tape target.
func (c *Client) CreateArchiveProject(ctx context.Context, name, description, directory string) (*Project, error) {
	req, err := c.authRequest(ctx)
	if err != nil {
		return nil, err
	}

	payload := archiveProjectRequest{
		Description:      description,
		Share:            "BIL Published Data",
		ProjectType:      "ScanAndArchive",
		WorkingDirectory: directory,
		Targets:          []string{"BIL Published Data on Tape"},
		Active:           true,
		Enabled:          true,
		BreadCrumbAction: "KeepOriginal",
		Filter: archiveProjectFilter{
			MinimumAge:  "AnyAge",
			MinimumSize: "Any",
		},
		Schedule: archiveProjectPeriod{Period: "Now"},
	}

	var project Project
	resp, err := req.
		SetBody(payload).
		SetResult(&project).
		SetPathParam("name", name).
		Put("/openapi/projects/archive/{name}")
	if err != nil {
		return nil, fmt.Errorf("creating archive project %s: %w", name, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("archive project creation for %s failed: %s", name, resp.Status())
	}
	return &project, nil
}
