package models

import "time"

// ShowEntry is one show as returned by the catalog provider's search
// output, before any re-keying. It lives for the duration of a single
// request.
type ShowEntry struct {
	ShowID   string `json:"show_id"` // provider's own id space
	Title    string `json:"title"`
	Episodes int    `json:"episodes"`
}

// Candidate is one search result from the MAL title lookup, considered
// as a possible match for a provider title.
type Candidate struct {
	MalID        int64  `json:"mal_id"`
	Title        string `json:"title"`                   // romaji / primary
	TitleEnglish string `json:"title_english,omitempty"` // localized, often absent
}

// Mapping is the persisted association between a provider show id and a
// MAL id. A nil MalID means the lookup ran and found no acceptable
// match; that is different from the row not existing at all, which
// means the show was never looked up.
type Mapping struct {
	ShowID    string    `json:"show_id"`
	MalID     *int64    `json:"mal_id"`
	UpdatedAt time.Time `json:"updated_at"`
}
