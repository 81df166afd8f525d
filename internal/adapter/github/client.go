package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shapesecurity/gist-migrator/internal/httpapi"
	"github.com/shapesecurity/gist-migrator/pkg/models"
)

// PerPage is the page size requested from the gist listing.
const PerPage = 100

// FileFetcher materializes one file of a gist.
type FileFetcher interface {
	FetchRawFile(ctx context.Context, locator, filename string) (string, error)
}

// Client lists the authenticated user's gists.
type Client struct {
	api     *httpapi.Client
	fetcher FileFetcher
}

// New creates a gist client on top of api. File contents are served by
// fetcher.
func New(api *httpapi.Client, fetcher FileFetcher) *Client {
	return &Client{api: api, fetcher: fetcher}
}

// NewAPI builds the REST transport with the headers the gist API expects.
func NewAPI(baseURL, token string, opts ...httpapi.Option) *httpapi.Client {
	opts = append([]httpapi.Option{
		httpapi.WithHeader("Accept", "application/vnd.github+json"),
		httpapi.WithHeader("X-GitHub-Api-Version", "2022-11-28"),
	}, opts...)
	return httpapi.New(baseURL, token, opts...)
}

// gist is the wire shape of a listed gist.
type gist struct {
	ID          string    `json:"id"`
	HTMLURL     string    `json:"html_url"`
	GitPullURL  string    `json:"git_pull_url"`
	Public      bool      `json:"public"`
	CreatedAt   time.Time `json:"created_at"`
	Description *string   `json:"description"`
	Files       gistFiles `json:"files"`
}

type gistFile struct {
	Filename string `json:"filename"`
	Language string `json:"language"`
	RawURL   string `json:"raw_url"`
	Size     int64  `json:"size"`
}

// gistFiles decodes the files object keeping its key order, which a Go
// map would lose.
type gistFiles []gistFile

func (f *gistFiles) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*f = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("gist files: expected object, got %v", tok)
	}

	files := gistFiles{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("gist files: expected key, got %v", keyTok)
		}

		var file gistFile
		if err := dec.Decode(&file); err != nil {
			return fmt.Errorf("gist file %q: %w", name, err)
		}
		if file.Filename == "" {
			file.Filename = name
		}
		files = append(files, file)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*f = files
	return nil
}

func (g gist) toModel() models.SourceItem {
	item := models.SourceItem{
		ID:        g.ID,
		CreatedAt: g.CreatedAt,
		Public:    g.Public,
		CloneURL:  g.GitPullURL,
		HTMLURL:   g.HTMLURL,
		Files:     make([]models.SourceFile, 0, len(g.Files)),
	}
	if g.Description != nil {
		item.Description = *g.Description
	}
	for _, f := range g.Files {
		item.Files = append(item.Files, models.SourceFile{
			Filename: f.Filename,
			Language: f.Language,
			RawURL:   f.RawURL,
			Size:     f.Size,
		})
	}
	return item
}

// ListUserItems fetches one page of gists. A non-2xx status is reported
// in the page rather than as an error; err is only set when no response
// was obtained or a successful body could not be decoded.
func (c *Client) ListUserItems(ctx context.Context, page int) (models.SourcePage, error) {
	query := url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(PerPage)},
	}

	resp, err := c.api.Do(ctx, http.MethodGet, "/gists", query, nil)
	if err != nil {
		return models.SourcePage{}, fmt.Errorf("listing gists page %d: %w", page, err)
	}

	result := models.SourcePage{Status: resp.StatusCode}
	if !result.OK() {
		// Keep the body in the error so the caller can log it.
		err := httpapi.CheckStatus(resp)
		resp.Body.Close()
		return result, err
	}

	var gists []gist
	if err := httpapi.DecodeJSON(resp, &gists); err != nil {
		return result, fmt.Errorf("listing gists page %d: %w", page, err)
	}

	result.Items = make([]models.SourceItem, 0, len(gists))
	for _, g := range gists {
		result.Items = append(result.Items, g.toModel())
	}
	result.More = hasNextLink(resp.Header.Get("Link"))
	return result, nil
}

// FetchRawFile returns the content of filename in the gist at locator.
func (c *Client) FetchRawFile(ctx context.Context, locator, filename string) (string, error) {
	if c.fetcher == nil {
		return "", fmt.Errorf("no file fetcher configured")
	}
	return c.fetcher.FetchRawFile(ctx, locator, filename)
}

// hasNextLink reports whether an RFC 8288 Link header advertises rel="next".
func hasNextLink(header string) bool {
	for _, link := range strings.Split(header, ",") {
		for _, param := range strings.Split(link, ";")[1:] {
			param = strings.TrimSpace(param)
			if param == `rel="next"` || param == "rel=next" {
				return true
			}
		}
	}
	return false
}
