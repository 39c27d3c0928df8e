// Package line talks to the LINE Messaging API (push) and LINE Login (OAuth).
package line

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/config"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/notify"
	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"golang.org/x/oauth2"
)

const (
	defaultAPIBase   = "https://api.line.me"
	defaultAuthorize = "https://access.line.me/oauth2/v2.1/authorize"
)

var ErrNotConfigured = errors.New("line is not configured")

// Profile is the subset of the LINE profile the app stores.
type Profile struct {
	UserID      string
	DisplayName string
	PictureURL  string
}

type Client struct {
	httpClient *http.Client
	apiBase    string

	accessToken string
	login       *oauth2.Config
	frontendURL string
}

func NewClient(cfg *config.Config) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		accessToken: cfg.LineAccessToken,
		frontendURL: cfg.FrontendURL,
		login: &oauth2.Config{
			ClientID:     cfg.LineLoginChannelID,
			ClientSecret: cfg.LineLoginChannelSecret,
			RedirectURL:  cfg.LineCallbackURL,
			Scopes:       []string{"profile", "openid"},
		},
	}
	c.setBase(defaultAPIBase, defaultAuthorize)
	return c
}

// WithBaseURL points both API and authorize endpoints at base. Used by tests.
func (c *Client) WithBaseURL(base string) *Client {
	base = strings.TrimRight(base, "/")
	c.setBase(base, base+"/oauth2/v2.1/authorize")
	return c
}

func (c *Client) setBase(apiBase, authorize string) {
	c.apiBase = apiBase
	c.login.Endpoint = oauth2.Endpoint{
		AuthURL:   authorize,
		TokenURL:  apiBase + "/oauth2/v2.1/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

// CanPush reports whether a Messaging API token is set.
func (c *Client) CanPush() bool { return c.accessToken != "" }

// CanLogin reports whether LINE Login credentials are set.
func (c *Client) CanLogin() bool { return c.login.ClientID != "" && c.login.ClientSecret != "" }

// Send pushes the rendered notification to its recipient. It implements notify.Sender.
func (c *Client) Send(ctx context.Context, n notify.Notification) error {
	if !c.CanPush() {
		return ErrNotConfigured
	}
	// WithContext mutates the API value, so each push gets its own.
	bot, err := messaging_api.NewMessagingApiAPI(c.accessToken,
		messaging_api.WithHTTPClient(c.httpClient),
		messaging_api.WithEndpoint(c.apiBase),
	)
	if err != nil {
		return fmt.Errorf("failed to build messaging client: %w", err)
	}

	_, err = bot.WithContext(ctx).PushMessage(&messaging_api.PushMessageRequest{
		To:       n.To,
		Messages: Render(n, c.frontendURL),
	}, uuid.NewString())
	if err != nil {
		return fmt.Errorf("line push failed: %w", err)
	}
	return nil
}

// AuthorizeURL is where the browser is sent to start LINE Login.
func (c *Client) AuthorizeURL(state string) string {
	return c.login.AuthCodeURL(state)
}

// ExchangeCode trades an authorization code for an access token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	if !c.CanLogin() {
		return "", ErrNotConfigured
	}
	tok, err := c.login.Exchange(c.oauthContext(ctx), code)
	if err != nil {
		return "", fmt.Errorf("token exchange failed: %w", err)
	}
	return tok.AccessToken, nil
}

// FetchProfile reads the LINE profile of the token's owner.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	client := oauth2.NewClient(c.oauthContext(ctx), oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/v2/profile", nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("profile fetch failed: status %d: %s", resp.StatusCode, raw)
	}

	// LINE Login returns the same shape as the bot profile endpoint.
	var body messaging_api.UserProfileResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return nil, fmt.Errorf("profile fetch failed: %w", err)
	}
	if body.UserId == "" {
		return nil, errors.New("profile response has no userId")
	}
	p := &Profile{
		UserID:      body.UserId,
		DisplayName: body.DisplayName,
		PictureURL:  body.PictureUrl,
	}
	return p, nil
}

func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}
