// Package serpapi provides a client for the SerpAPI Google search endpoint.
package serpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://serpapi.com"

// Client performs SerpAPI search operations.
//
// The API key is a per-call argument rather than client state: callers
// rotate between several keys within a single run, and the transport
// does not change between them.
type Client interface {
	Search(ctx context.Context, apiKey string, params Params) (*SearchResponse, error)
}

// Params holds the search request parameters.
type Params struct {
	Query    string
	Num      int    // bounded result count
	Language string // hl
	Country  string // gl
}

// SearchResponse is the parsed SerpAPI payload. Error is set when the
// provider returned an in-payload error instead of results.
type SearchResponse struct {
	Error          string          `json:"error,omitempty"`
	KnowledgeGraph *KnowledgeGraph `json:"knowledge_graph,omitempty"`
	LocalResults   []LocalResult   `json:"local_results,omitempty"`
	OrganicResults []OrganicResult `json:"organic_results,omitempty"`
}

// KnowledgeGraph is the curated entity summary block.
type KnowledgeGraph struct {
	Title string `json:"title"`
	Phone string `json:"phone"`
}

// LocalResult is a structured business listing from the local pack.
type LocalResult struct {
	Title   string `json:"title"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// OrganicResult is an unstructured web hit with a text snippet.
type OrganicResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a SerpAPI client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, apiKey string, params Params) (*SearchResponse, error) {
	q := url.Values{}
	q.Set("engine", "google")
	q.Set("q", params.Query)
	q.Set("api_key", apiKey)
	if params.Num > 0 {
		q.Set("num", strconv.Itoa(params.Num))
	}
	if params.Language != "" {
		q.Set("hl", params.Language)
	}
	if params.Country != "" {
		q.Set("gl", params.Country)
	}

	reqURL := c.baseURL + "/search.json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "serpapi: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "serpapi: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "serpapi: read response")
	}

	// SerpAPI reports failures as JSON with an "error" field, usually
	// alongside a non-2xx status (401 bad key, 429 out of searches).
	// Surface those as an in-payload error so the caller can classify
	// them, and reserve transport errors for undecodable responses.
	var result SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, eris.Errorf("serpapi: unexpected status %d: %s", resp.StatusCode, string(body))
		}
		return nil, eris.Wrap(err, "serpapi: unmarshal response")
	}

	if resp.StatusCode != http.StatusOK && result.Error == "" {
		return nil, eris.Errorf("serpapi: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	return &result, nil
}
