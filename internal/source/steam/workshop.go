package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/DonovanMods/twlm/internal/domain"
)

const (
	defaultBaseURL = "https://api.steampowered.com"
	detailsPath    = "/ISteamRemoteStorage/GetPublishedFileDetails/v1/"

	// SourceID identifies the Workshop as a metadata source.
	SourceID = "steam"

	// maxBatch is how many ids are sent per request
	maxBatch = 100
)

// Workshop is a client for the Steam Workshop Web API
type Workshop struct {
	httpClient *http.Client
	baseURL    string

	mu     sync.RWMutex
	apiKey string
}

// NewWorkshop creates a new Workshop client. The API key is optional for
// public items.
func NewWorkshop(httpClient *http.Client, apiKey string) *Workshop {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Workshop{
		httpClient: httpClient,
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
	}
}

// ID returns the source identifier
func (w *Workshop) ID() string { return SourceID }

// Name returns the display name
func (w *Workshop) Name() string { return "Steam Workshop" }

// Serves reports whether game is a Steam release with Workshop items
func (w *Workshop) Serves(game *domain.Game) bool {
	return game.SteamAppID != "" && game.ContentPath != ""
}

// SetAPIKey sets the Steam Web API key
func (w *Workshop) SetAPIKey(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.apiKey = key
}

func (w *Workshop) key() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.apiKey
}

// FetchRecords returns online records for the given Workshop ids. Items the
// Workshop does not report (deleted, hidden, bad id) are left out.
func (w *Workshop) FetchRecords(ctx context.Context, ids []string) ([]domain.OnlineRecord, error) {
	var records []domain.OnlineRecord
	for start := 0; start < len(ids); start += maxBatch {
		end := min(start+maxBatch, len(ids))

		details, err := w.GetPublishedFileDetails(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		for _, d := range details {
			if d.Result != resultOK {
				continue
			}
			records = append(records, d.toRecord())
		}
	}
	return records, nil
}

// GetPublishedFileDetails performs one GetPublishedFileDetails call.
func (w *Workshop) GetPublishedFileDetails(ctx context.Context, ids []string) ([]PublishedFileDetails, error) {
	form := url.Values{}
	form.Set("itemcount", strconv.Itoa(len(ids)))
	for i, id := range ids {
		form.Set(fmt.Sprintf("publishedfileids[%d]", i), id)
	}
	if key := w.key(); key != "" {
		form.Set("key", key)
	}

	var resp publishedFileDetailsResponse
	if err := w.doRequest(ctx, detailsPath, form, &resp); err != nil {
		return nil, fmt.Errorf("getting published file details: %w", err)
	}
	return resp.Response.Details, nil
}

// doRequest posts a form and decodes the JSON response
func (w *Workshop) doRequest(ctx context.Context, path string, form url.Values, result interface{}) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing response body: %w", cerr)
		}
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: Steam Web API rejected the request (check API key)", domain.ErrAuthRequired)
	default:
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 10*1024))
		if readErr != nil {
			return fmt.Errorf("API error (status %d); reading body: %w", resp.StatusCode, readErr)
		}
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (d PublishedFileDetails) toRecord() domain.OnlineRecord {
	return domain.OnlineRecord{
		ID:            d.PublishedFileID,
		Title:         d.Title,
		Creator:       d.Creator,
		FileSize:      int64(d.FileSize),
		FileURL:       d.FileURL,
		PreviewURL:    d.PreviewURL,
		Description:   d.Description,
		TimeCreated:   unixTime(int64(d.TimeCreated)),
		TimeUpdated:   unixTime(int64(d.TimeUpdated)),
		Subscriptions: int64(d.Subscriptions),
		Votes:         int64(d.Favorited),
	}
}

func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
