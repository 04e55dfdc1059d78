package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"

	"github.com/propertyhub/rental-api/internal/core/domain"
)

const (
	ProviderFacebook = "facebook"
	defaultGraphURL  = "https://graph.facebook.com/v19.0"
)

type FacebookConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Facebook signs in with the OAuth authorization code flow: the credential is
// the code returned to the redirect URL, exchanged here for a user token.
type Facebook struct {
	oauth    *oauth2.Config
	graphURL string
}

func NewFacebook(cfg FacebookConfig) *Facebook {
	return &Facebook{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     facebook.Endpoint,
			Scopes:       []string{"email", "public_profile"},
		},
		graphURL: defaultGraphURL,
	}
}

func (f *Facebook) Name() string { return ProviderFacebook }

func (f *Facebook) AuthCodeURL(state string) string {
	return f.oauth.AuthCodeURL(state)
}

type facebookProfile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

func (f *Facebook) Verify(ctx context.Context, code string) (*domain.ExternalIdentity, error) {
	tok, err := f.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: code exchange: %v", domain.ErrFederatedAuthFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.graphURL+"/me?fields=id,name,email,picture.type(large)", nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("facebook profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: graph api status %d: %s", domain.ErrFederatedAuthFailed, resp.StatusCode, body)
	}

	var p facebookProfile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode facebook profile: %w", err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("%w: facebook profile has no id", domain.ErrFederatedAuthFailed)
	}
	return &domain.ExternalIdentity{
		Provider: ProviderFacebook,
		Subject:  p.ID,
		Email:    p.Email,
		Name:     p.Name,
		Avatar:   p.Picture.Data.URL,
	}, nil
}
