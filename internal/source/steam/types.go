package steam

import (
	"encoding/json"
	"strconv"
)

// Result codes used by the Steam Web API
const (
	resultOK = 1
)

// flexInt decodes integers the Web API sends either as numbers or as strings.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexInt(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

// PublishedFileDetails is one item of a GetPublishedFileDetails response.
type PublishedFileDetails struct {
	PublishedFileID string  `json:"publishedfileid"`
	Result          int     `json:"result"`
	Creator         string  `json:"creator"`
	ConsumerAppID   flexInt `json:"consumer_app_id"`
	FileSize        flexInt `json:"file_size"`
	FileURL         string  `json:"file_url"`
	PreviewURL      string  `json:"preview_url"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	TimeCreated     flexInt `json:"time_created"`
	TimeUpdated     flexInt `json:"time_updated"`
	Subscriptions   flexInt `json:"subscriptions"`
	Favorited       flexInt `json:"favorited"`
}

// publishedFileDetailsResponse wraps the API envelope.
type publishedFileDetailsResponse struct {
	Response struct {
		Result      int                    `json:"result"`
		ResultCount int                    `json:"resultcount"`
		Details     []PublishedFileDetails `json:"publishedfiledetails"`
	} `json:"response"`
}
