package models

// Provider tags recorded on identities and profiles.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google.com"
)

// Identity is the identity provider's record of an authenticated principal.
// It is never persisted locally beyond the session.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	Provider    string `json:"provider"`
	// IDToken is the provider-issued token, needed for follow-up calls such
	// as display name updates.
	IDToken string `json:"-"`
}

// IsFederated reports whether the identity came from a third-party account.
func (i *Identity) IsFederated() bool {
	return i.Provider != "" && i.Provider != ProviderPassword
}
