package model

// Playlist is sourced entirely from the backend. Local edits are optimistic;
// the server's copy stays authoritative.
type Playlist struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Image       string  `json:"image,omitempty"`
	Tracks      []Track `json:"tracks,omitempty"`
	SnapshotID  string  `json:"snapshot_id,omitempty"`
}

type Track struct {
	URI     string   `json:"uri"`
	Name    string   `json:"name"`
	Artists []string `json:"artists"`
}

// TrackURI keys a single track for removal requests.
type TrackURI struct {
	URI string `json:"uri"`
}
