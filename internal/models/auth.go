package models

// AuthInfo holds the staff operator credentials handed to the kiosk after
// a remote login. The access token is treated as opaque except for its
// expiry claim; the kiosk never verifies signatures, the server does.
type AuthInfo struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       int    `json:"user_id"`
	Username     string `json:"username"`
}
