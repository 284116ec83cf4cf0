package model

import "encoding/json"

// LyricsResultType discriminates the possible outcomes of a lyrics lookup.
// Wire values come from the backend as the "Type" field.
type LyricsResultType string

const (
	LyricsRedirect LyricsResultType = "Redirect"
	LyricsCaptcha  LyricsResultType = "Captcha"
	LyricsNotFound LyricsResultType = "Error"
)

// LyricsResult is the lyrics lookup outcome. The backend answers either with
// a bare JSON string (a URL to open) or with a tagged {url, Type} object;
// both decode into the same sum type so callers can match exhaustively.
type LyricsResult struct {
	Type LyricsResultType
	URL  string
}

func (r *LyricsResult) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		r.Type = LyricsRedirect
		r.URL = plain
		return nil
	}

	var tagged struct {
		URL  string           `json:"url"`
		Type LyricsResultType `json:"Type"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	r.Type = tagged.Type
	r.URL = tagged.URL
	return nil
}

func (r LyricsResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		URL  string           `json:"url"`
		Type LyricsResultType `json:"Type"`
	}{URL: r.URL, Type: r.Type})
}
