package domain

// TokenPair is what credential exchanges return: a short-lived signed
// access token and the raw opaque refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"` // always "Bearer"
	ExpiresIn    int64  `json:"expires_in"`           // seconds until access expiry
}
