package model

type UserProfile struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UpdateProfileParams carries the fields a profile update may change. Empty
// fields are omitted from the request.
type UpdateProfileParams struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}
