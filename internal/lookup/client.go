package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"anihub/pkg/models"
	"anihub/pkg/utils"
)

// Client is the MAL title-search collaborator. The resolver only needs
// Search, so tests can swap in a fake.
type Client interface {
	Search(ctx context.Context, title string) ([]models.Candidate, error)
}

// MALClient queries a Jikan-compatible API for anime by title.
type MALClient struct {
	BaseURL string
	HTTP    *http.Client
	Limit   int // candidates per search
}

func NewMALClient(cfg utils.ResolverConfig) *MALClient {
	return &MALClient{
		BaseURL: cfg.BaseURL,
		HTTP:    &http.Client{Timeout: cfg.Timeout},
		Limit:   10,
	}
}

type searchResponse struct {
	Data []struct {
		MalID        int64  `json:"mal_id"`
		Title        string `json:"title"`
		TitleEnglish string `json:"title_english"`
	} `json:"data"`
}

// Search returns the raw candidate list in response order. A missing or
// empty data field is zero candidates, not an error; transport and
// decode failures are errors for the caller to classify.
func (c *MALClient) Search(ctx context.Context, title string) ([]models.Candidate, error) {
	u := fmt.Sprintf("%s/anime?q=%s&limit=%d", c.BaseURL, url.QueryEscape(title), c.Limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("mal: build request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mal: request: %w", err)
	}

	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mal: status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("mal: decode: %w", err)
	}

	out := make([]models.Candidate, 0, len(sr.Data))
	for _, item := range sr.Data {
		if item.MalID == 0 || item.Title == "" {
			continue
		}
		out = append(out, models.Candidate{
			MalID:        item.MalID,
			Title:        item.Title,
			TitleEnglish: item.TitleEnglish,
		})
	}
	return out, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

var _ Client = (*MALClient)(nil)
