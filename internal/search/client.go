package search

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"realty_agent_backend/internal/conversation/domain"
	"realty_agent_backend/platform/config"
	"realty_agent_backend/platform/logger"
)

// Client queries the property inventory service over HTTP. Every failure
// mode (transport error, bad status, malformed body, timeout) collapses
// to a failed zero-result outcome so the conversation never stalls on
// inventory trouble.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	log     *logger.Logger
}

// NewClient builds the HTTP search provider.
func NewClient(cfg config.SearchConfig, log *logger.Logger) *Client {
	timeout := cfg.GetSearchTimeout()
	return &Client{
		baseURL: cfg.GetSearchBaseURL(),
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

type searchResponse struct {
	Success    bool `json:"success"`
	Count      int  `json:"count"`
	Properties []struct {
		Title    string `json:"title"`
		Price    string `json:"price"`
		Location string `json:"location"`
		Link     string `json:"link"`
		Image    string `json:"image"`
		Status   string `json:"status"`
	} `json:"properties"`
}

// Search implements Provider.
func (c *Client) Search(ctx context.Context, q Query) domain.SearchOutcome {
	searchURL := BuildURL(c.baseURL, q)
	failed := domain.SearchOutcome{Success: false, Count: 0, Items: []domain.Listing{}, URL: searchURL}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL(c.baseURL, q), nil)
	if err != nil {
		c.log.Error("search request build failed", "error", err)
		return failed
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("property search failed", "error", err, "location", q.Location)
		return failed
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("property search returned non-200", "status", resp.StatusCode)
		return failed
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.log.Warn("property search response malformed", "error", err)
		return failed
	}

	items := make([]domain.Listing, 0, len(body.Properties))
	for _, p := range body.Properties {
		items = append(items, domain.Listing{
			Title:    p.Title,
			Price:    p.Price,
			Location: p.Location,
			Link:     p.Link,
			Image:    p.Image,
			Status:   p.Status,
		})
	}

	count := body.Count
	if count < len(items) {
		count = len(items)
	}

	return domain.SearchOutcome{
		Success: body.Success,
		Count:   count,
		Items:   items,
		URL:     searchURL,
	}
}

// apiURL points at the inventory service's JSON endpoint; the listing
// page URL from BuildURL is what gets stored on the lead.
func apiURL(baseURL string, q Query) string {
	base := strings.TrimRight(baseURL, "/")
	query := strings.TrimPrefix(BuildURL(baseURL, q), base+"/properties?")
	return base + "/api/properties/search?" + query
}
