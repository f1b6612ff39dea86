package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	gh "github.com/google/go-github/v68/github"
	"github.com/m-mizutani/goerr/v2"

	"activitybox/internal/report"
)

const (
	// PerPage is the largest page size the events API serves.
	PerPage = 100

	// DefaultGistFilename is used when the gist has no file yet and none is configured.
	DefaultGistFilename = "activity"

	defaultTimeout = 30 * time.Second

	mediaType = "application/vnd.github+json"
)

// ErrTransport wraps every failed call to the GitHub API.
var ErrTransport = errors.New("github transport error")

type Client struct {
	gh *gh.Client
}

type config struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
}

type Option func(*config)

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) { c.httpClient = hc }
}

// WithBaseURL points the client at another API root, e.g. an httptest server.
func WithBaseURL(u string) Option {
	return func(c *config) { c.baseURL = u }
}

func NewClient(token string, opts ...Option) (*Client, error) {
	cfg := config{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	hc := &http.Client{Timeout: cfg.timeout}
	if cfg.httpClient != nil {
		copied := *cfg.httpClient
		hc = &copied
	}
	hc.Transport = &acceptTransport{base: hc.Transport}

	client := gh.NewClient(hc)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	if cfg.baseURL != "" {
		base := cfg.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid GitHub API base URL", goerr.V("base_url", cfg.baseURL))
		}
		client.BaseURL = u
	}

	return &Client{gh: client}, nil
}

// acceptTransport overrides go-github's default Accept header.
type acceptTransport struct {
	base http.RoundTripper
}

func (t *acceptTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	req = req.Clone(req.Context())
	req.Header.Set("Accept", mediaType)
	return base.RoundTrip(req)
}

// FetchEvents reads up to maxPage pages of the user's public events feed,
// most recent first. It stops at the first short page. Records are decoded one
// by one so a malformed record becomes report.KindOther instead of failing the
// page.
func (c *Client) FetchEvents(ctx context.Context, username string, maxPage int) ([]report.Activity, error) {
	var activities []report.Activity

	for page := 1; page <= maxPage; page++ {
		u := fmt.Sprintf("users/%s/events/public?per_page=%d&page=%d", url.PathEscape(username), PerPage, page)
		req, err := c.gh.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to build events request", goerr.V("username", username))
		}

		var records []json.RawMessage
		if _, err := c.gh.Do(ctx, req, &records); err != nil {
			return nil, goerr.Wrap(transportError(err), "failed to list public events",
				goerr.V("username", username),
				goerr.V("page", page))
		}

		for _, raw := range records {
			activities = append(activities, report.Classify(raw))
		}

		if len(records) < PerPage {
			break
		}
	}

	return activities, nil
}

// transportError keeps both ErrTransport and the go-github error in the chain.
func transportError(err error) error {
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

// GistFile is the current state of one file of a gist.
type GistFile struct {
	Filename string
	Content  string
}

// GetGist reads one file of a gist. With an empty filename the first file in
// name order is used; a gist without files yields DefaultGistFilename and no
// content.
func (c *Client) GetGist(ctx context.Context, gistID, filename string) (*GistFile, error) {
	gist, _, err := c.gh.Gists.Get(ctx, gistID)
	if err != nil {
		return nil, goerr.Wrap(transportError(err), "failed to get gist",
			goerr.V("gist_id", gistID))
	}

	if filename == "" {
		filename = firstFilename(gist.Files)
	}

	file, ok := gist.Files[gh.GistFilename(filename)]
	if !ok {
		return &GistFile{Filename: filename}, nil
	}
	return &GistFile{Filename: filename, Content: file.GetContent()}, nil
}

func firstFilename(files map[gh.GistFilename]gh.GistFile) string {
	if len(files) == 0 {
		return DefaultGistFilename
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names[0]
}

// UpdateGist overwrites the content of one file of a gist.
func (c *Client) UpdateGist(ctx context.Context, gistID, filename, content string) error {
	_, _, err := c.gh.Gists.Edit(ctx, gistID, &gh.Gist{
		Files: map[gh.GistFilename]gh.GistFile{
			gh.GistFilename(filename): {Content: gh.Ptr(content)},
		},
	})
	if err != nil {
		return goerr.Wrap(transportError(err), "failed to update gist",
			goerr.V("gist_id", gistID),
			goerr.V("filename", filename))
	}
	return nil
}
