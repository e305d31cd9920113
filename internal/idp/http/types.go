package http

import "github.com/aussiebroadwan/passport/internal/idp/domain"

// TokenResponse is the success body of login, refresh and tenant selection.
// Field names follow the OAuth2 token response convention.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// LoginResponse extends the token response with the principal's identity
// and the tenants they may select.
type LoginResponse struct {
	TokenResponse

	Principal domain.PrincipalSummary    `json:"principal"`
	Tenants   []domain.MembershipSummary `json:"tenants"`
}

// TenantSelectResponse carries the narrowed access token plus the tenant
// the caller just entered and where to take them next.
type TenantSelectResponse struct {
	TokenResponse

	Tenant     domain.MembershipSummary `json:"tenant"`
	RedirectTo string                   `json:"redirect_to,omitempty"`
}

func tokenResponse(pair domain.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
	}
}
