package account

import (
	"net/url"
	"strings"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
)

// NavConfig holds the deployment values the top nav is built from.
type NavConfig struct {
	IssuerURL   string
	ClientID    string
	PublicURL   string
	ResourceURL string
}

// TopNav builds the top navigation bar. The referrer link is shown only
// when both its name and an absolute http(s) URI are given.
func TopNav(cfg NavConfig, referrer, referrerURI string) model.TopNav {
	nav := model.TopNav{
		ResourceURL: cfg.ResourceURL,
		LogoutURL:   LogoutURL(cfg),
	}
	if referrer != "" && validReferrerURI(referrerURI) {
		nav.Referrer = referrer
		nav.ReferrerURI = referrerURI
	}
	return nav
}

// LogoutURL is the OIDC end-session endpoint of the issuer.
func LogoutURL(cfg NavConfig) string {
	q := url.Values{}
	q.Set("client_id", cfg.ClientID)
	if cfg.PublicURL != "" {
		q.Set("post_logout_redirect_uri", cfg.PublicURL)
	}
	return strings.TrimRight(cfg.IssuerURL, "/") + "/protocol/openid-connect/logout?" + q.Encode()
}

func validReferrerURI(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
