package model

// LoginRequest is the presenter login payload.
type LoginRequest struct {
	Passcode string `json:"passcode"`
}

// RefreshRequest exchanges a refresh token for a new pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenPair carries the issued presenter tokens.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
