package keycloak

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Nerzal/gocloak/v13"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/config"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/metrics"
)

// Client wraps GoCloak and manages service-account token lifecycle.
type Client struct {
	gc          *gocloak.GoCloak
	cfg         *config.Config
	baseURL     string
	logger      *zap.Logger
	mu          sync.RWMutex
	token       *gocloak.JWT
	tokenExpiry time.Time
}

// NewClient creates a new Keycloak client and performs an initial login.
func NewClient(cfg *config.Config, logger *zap.Logger) (*Client, error) {
	gc := gocloak.NewClient(cfg.KeycloakURL)

	c := &Client{
		gc:      gc,
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.KeycloakURL, "/"),
		logger:  logger.Named("keycloak"),
	}

	if err := c.refreshToken(context.Background()); err != nil {
		return nil, fmt.Errorf("initial keycloak login: %w", err)
	}

	return c, nil
}

// Token returns a valid access token, refreshing if needed.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.RLock()
	if c.token != nil && time.Now().Before(c.tokenExpiry) {
		tok := c.token.AccessToken
		c.mu.RUnlock()
		return tok, nil
	}
	c.mu.RUnlock()

	if err := c.refreshToken(ctx); err != nil {
		return "", err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token.AccessToken, nil
}

func (c *Client) refreshToken(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock.
	if c.token != nil && time.Now().Before(c.tokenExpiry) {
		return nil
	}

	c.logger.Debug("refreshing service account token",
		zap.String("client_id", c.cfg.KeycloakClientID),
		zap.String("realm", c.cfg.KeycloakRealm),
	)

	token, err := c.gc.LoginClient(ctx, c.cfg.KeycloakClientID, c.cfg.KeycloakClientSecret, c.cfg.KeycloakRealm)
	if err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("login").Inc()
		return fmt.Errorf("keycloak client login: %w", err)
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("login", "success").Inc()

	c.token = token
	// Set expiry with a 30-second buffer to avoid using a nearly-expired token.
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn-30) * time.Second)

	c.logger.Info("keycloak token refreshed", zap.Time("expires", c.tokenExpiry))
	return nil
}

// Realm returns the service-account realm name.
func (c *Client) Realm() string {
	return c.cfg.KeycloakRealm
}

// Healthy checks connectivity by fetching realm info.
func (c *Client) Healthy(ctx context.Context) error {
	token, err := c.Token(ctx)
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}

	_, err = c.gc.GetRealm(ctx, token, c.cfg.KeycloakRealm)
	if err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("health_check").Inc()
		return fmt.Errorf("get realm: %w", err)
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("health_check", "success").Inc()
	return nil
}

// adminRequest returns a resty request authorized with the service-account token.
func (c *Client) adminRequest(ctx context.Context) (*resty.Request, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}
	return c.gc.GetRequestWithBearerAuth(ctx, token), nil
}

// adminURL builds an admin REST URL below /admin/realms/{realm}/.
func (c *Client) adminURL(realm, resource string) string {
	return fmt.Sprintf("%s/admin/realms/%s/%s", c.baseURL, url.PathEscape(realm), strings.TrimLeft(resource, "/"))
}

// accountURL builds an account REST URL below /realms/{realm}/account.
func (c *Client) accountURL(realm, path string) string {
	if path == "/" {
		path = ""
	}
	return fmt.Sprintf("%s/realms/%s/account%s", c.baseURL, url.PathEscape(realm), path)
}

// RemoteError is a non-success response returned by Keycloak. Message holds
// the body's errorMessage and is empty when the body carried none. Detail
// holds the OAuth error fields, which are logged but never shown to users.
type RemoteError struct {
	Operation string
	Status    int
	Message   string
	Detail    string
}

func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("%s: status %d", e.Operation, e.Status)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// ServerMessage returns the error text sent by Keycloak, if any.
func (e *RemoteError) ServerMessage() string {
	return e.Message
}

type errorBody struct {
	ErrorMessage     string `json:"errorMessage"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// checkResponse converts a failed resty call into an error and records metrics.
func checkResponse(op string, resp *resty.Response, err error) error {
	if err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues(op).Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsError() {
		metrics.KeycloakErrorsTotal.WithLabelValues(op).Inc()
		msg, detail := errorMessage(resp.Body())
		return &RemoteError{
			Operation: op,
			Status:    resp.StatusCode(),
			Message:   msg,
			Detail:    detail,
		}
	}
	metrics.KeycloakRequestsTotal.WithLabelValues(op, "success").Inc()
	return nil
}

// errorMessage returns the errorMessage field of a Keycloak error body and,
// separately, its OAuth error and error_description for diagnostics.
func errorMessage(body []byte) (message, detail string) {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return "", ""
	}
	detail = strings.TrimSpace(strings.Join([]string{eb.Error, eb.ErrorDescription}, " "))
	return eb.ErrorMessage, detail
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefBool(b *bool) bool {
	if b == nil {
		return false
	}
	return *b
}
