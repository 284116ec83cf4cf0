package model

// TimePeriod buckets listening statistics the way the backend does.
type TimePeriod string

const (
	PeriodShortTerm  TimePeriod = "short_term"
	PeriodMediumTerm TimePeriod = "medium_term"
	PeriodLongTerm   TimePeriod = "long_term"
)

func (p TimePeriod) Valid() bool {
	switch p {
	case PeriodShortTerm, PeriodMediumTerm, PeriodLongTerm:
		return true
	}
	return false
}

// RankedEntry is one artist, track, or genre in a top-N listing.
type RankedEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// MusicStats aggregates the user's top artists, tracks, and genres for one
// time period.
type MusicStats struct {
	Period     TimePeriod    `json:"period"`
	TopArtists []RankedEntry `json:"top_artists"`
	TopTracks  []RankedEntry `json:"top_tracks"`
	TopGenres  []RankedEntry `json:"top_genres"`
}
