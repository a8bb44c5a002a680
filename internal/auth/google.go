package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"weather-dashboard/config"
	"weather-dashboard/internal/state"
	"weather-dashboard/pkg/logger"
)

const GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

var (
	ErrLoginFailed   = errors.New("login failed, try again")
	ErrNotConfigured = errors.New("google sign-in is not configured")
)

// Profile is the subset of the userinfo document shown in the dashboard.
type Profile struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

type GoogleProvider struct {
	oauth       *oauth2.Config
	userInfoURL string
	l           *logger.Logger
}

type Option func(*GoogleProvider)

// WithEndpoint replaces Google's authorization and token endpoints.
func WithEndpoint(endpoint oauth2.Endpoint) Option {
	return func(p *GoogleProvider) { p.oauth.Endpoint = endpoint }
}

func WithUserInfoURL(url string) Option {
	return func(p *GoogleProvider) { p.userInfoURL = url }
}

func NewGoogleProvider(cfg config.AuthConfig, l *logger.Logger, opts ...Option) (*GoogleProvider, error) {
	if cfg.GoogleClientID == "" {
		return nil, ErrNotConfigured
	}

	p := &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: GoogleUserInfoURL,
		l:           l,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// NewState returns a random value for the OAuth state parameter.
func NewState() string {
	return uuid.NewString()
}

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, errors.New("authorization code is empty")
	}
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "failed to exchange authorization code")
	}
	return token, nil
}

func (p *GoogleProvider) Profile(ctx context.Context, token *oauth2.Token) (Profile, error) {
	var profile Profile

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return profile, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return profile, errors.Wrap(err, "failed to fetch user info")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return profile, errors.Wrap(err, "failed to read user info")
	}
	if resp.StatusCode != http.StatusOK {
		return profile, fmt.Errorf("HTTP error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, &profile); err != nil {
		return profile, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return profile, nil
}

// SignIn completes the code flow and returns the action that records the identity.
// Every failure is reported as ErrLoginFailed.
func (p *GoogleProvider) SignIn(ctx context.Context, code string) (state.SignIn, error) {
	token, err := p.Exchange(ctx, code)
	if err != nil {
		p.l.Warning("google sign-in failed", map[string]any{"step": "exchange", "err": err})
		return state.SignIn{}, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	profile, err := p.Profile(ctx, token)
	if err != nil {
		p.l.Warning("google sign-in failed", map[string]any{"step": "profile", "err": err})
		return state.SignIn{}, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	p.l.Info("google sign-in succeeded", map[string]any{"email": profile.Email})

	return state.SignIn{
		Name:            profile.Name,
		Email:           profile.Email,
		ProfileImageURL: profile.Picture,
	}, nil
}
