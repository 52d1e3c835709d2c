package model

// PublicConfig is the response for the /api/v1/config endpoint,
// providing the frontend with the information it needs to perform OIDC login.
type PublicConfig struct {
	KeycloakURL  string `json:"keycloak_url"`
	Realm        string `json:"realm"`
	AccountRealm string `json:"account_realm"`
	ClientID     string `json:"client_id"`
	IssuerURL    string `json:"issuer_url"`
	ResourceURL  string `json:"resource_url"`
}

// UserSummary is a user row in the admin user search.
type UserSummary struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Enabled   bool   `json:"enabled"`
}
