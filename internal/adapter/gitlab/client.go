package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shapesecurity/gist-migrator/internal/httpapi"
	"github.com/shapesecurity/gist-migrator/internal/logger"
	"github.com/shapesecurity/gist-migrator/pkg/models"
)

// PerPage is the page size requested from the snippet listing.
const PerPage = 100

// maxPages guards against a server that never stops advertising a next page.
const maxPages = 10000

// Client reads and creates personal snippets.
type Client struct {
	api *httpapi.Client
}

// New creates a snippet client on top of api.
func New(api *httpapi.Client) *Client {
	return &Client{api: api}
}

// NewAPI builds the REST transport for the snippet API.
func NewAPI(baseURL, token string, opts ...httpapi.Option) *httpapi.Client {
	return httpapi.New(baseURL, token, opts...)
}

type snippetFile struct {
	Path   string `json:"path"`
	RawURL string `json:"raw_url,omitempty"`
}

// snippet is the wire shape of a listed or created snippet.
type snippet struct {
	ID          int           `json:"id"`
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	Visibility  string        `json:"visibility"`
	WebURL      string        `json:"web_url"`
	FileName    string        `json:"file_name"`
	Files       []snippetFile `json:"files"`
}

func (s snippet) toModel() models.DestinationItem {
	item := models.DestinationItem{
		ID:         s.ID,
		Title:      s.Title,
		Visibility: models.Visibility(s.Visibility),
		WebURL:     s.WebURL,
	}
	if s.Description != nil {
		item.Description = *s.Description
	}

	// Servers predating multi-file snippets only report file_name.
	if s.Files == nil && s.FileName != "" {
		item.Files = []models.DestinationFile{{Path: s.FileName}}
		return item
	}

	item.Files = make([]models.DestinationFile, 0, len(s.Files))
	for _, f := range s.Files {
		item.Files = append(item.Files, models.DestinationFile{Path: f.Path})
	}
	return item
}

type createFile struct {
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
}

type createRequest struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Visibility  string       `json:"visibility"`
	Files       []createFile `json:"files"`
}

// ListAllDestinationItems returns every snippet of the authenticated
// user, following pagination.
func (c *Client) ListAllDestinationItems(ctx context.Context) ([]models.DestinationItem, error) {
	var items []models.DestinationItem

	page := 1
	for n := 0; n < maxPages; n++ {
		query := url.Values{
			"page":     {strconv.Itoa(page)},
			"per_page": {strconv.Itoa(PerPage)},
		}

		resp, err := c.api.Do(ctx, http.MethodGet, "/snippets", query, nil)
		if err != nil {
			return nil, fmt.Errorf("listing snippets page %d: %w", page, err)
		}
		next := strings.TrimSpace(resp.Header.Get("X-Next-Page"))

		var snippets []snippet
		if err := httpapi.DecodeJSON(resp, &snippets); err != nil {
			if httpapi.IsNotFound(err) {
				return nil, fmt.Errorf("listing snippets: no snippets API under %s, check the destination URL: %w", c.api.BaseURL(), err)
			}
			return nil, fmt.Errorf("listing snippets page %d: %w", page, err)
		}
		for _, s := range snippets {
			items = append(items, s.toModel())
		}
		logger.Debug("Listed snippets page %d (%d items)", page, len(snippets))

		if next == "" || len(snippets) == 0 {
			return items, nil
		}
		nextPage, err := strconv.Atoi(next)
		if err != nil || nextPage <= page {
			return nil, fmt.Errorf("listing snippets: invalid X-Next-Page %q after page %d", next, page)
		}
		page = nextPage
	}

	return nil, fmt.Errorf("listing snippets: more than %d pages", maxPages)
}

// CreateDestinationItem creates a snippet and returns it as stored,
// including its web URL. The request is sent once, never retried.
func (c *Client) CreateDestinationItem(ctx context.Context, item models.DestinationItem) (models.DestinationItem, error) {
	req := createRequest{
		Title:       item.Title,
		Description: item.Description,
		Visibility:  string(item.Visibility),
		Files:       make([]createFile, 0, len(item.Files)),
	}
	for _, f := range item.Files {
		req.Files = append(req.Files, createFile{FilePath: f.Path, Content: f.Content})
	}

	resp, err := c.api.Do(ctx, http.MethodPost, "/snippets", nil, req)
	if err != nil {
		return models.DestinationItem{}, fmt.Errorf("creating snippet %q: %w", item.Title, err)
	}

	var created snippet
	if err := httpapi.DecodeJSON(resp, &created); err != nil {
		return models.DestinationItem{}, fmt.Errorf("creating snippet %q: %w", item.Title, err)
	}
	return created.toModel(), nil
}
