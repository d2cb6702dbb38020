package models

// FederatedAssertion is what a completed consent flow proves about a user.
type FederatedAssertion struct {
	ProviderID    string
	IDToken       string
	Subject       string
	Email         string
	EmailVerified bool
	DisplayName   string
}
