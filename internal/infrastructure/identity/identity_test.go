package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"

	"github.com/propertyhub/rental-api/internal/core/domain"
	"github.com/propertyhub/rental-api/internal/core/ports"
)

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry(NewGoogle("cid"), NewFacebook(FacebookConfig{ClientID: "fb"}))

	p, err := r.Lookup(" Google ")
	if err != nil || p.Name() != ProviderGoogle {
		t.Fatalf("Lookup google: %v %v", p, err)
	}
	if _, err := r.Lookup("twitter"); !errors.Is(err, domain.ErrProviderNotSupported) {
		t.Fatalf("expected ErrProviderNotSupported, got %v", err)
	}
	if names := r.Names(); len(names) != 2 || names[0] != "facebook" {
		t.Fatalf("unexpected names: %v", names)
	}

	fb, _ := r.Lookup("facebook")
	if _, ok := fb.(ports.RedirectProvider); !ok {
		t.Fatal("facebook should support the redirect flow")
	}
}

func TestGoogle_Verify(t *testing.T) {
	g := NewGoogle("cid")
	g.validate = func(_ context.Context, token, audience string) (*idtoken.Payload, error) {
		if audience != "cid" {
			t.Errorf("unexpected audience %q", audience)
		}
		if token != "good" {
			return nil, errors.New("idtoken: invalid signature")
		}
		return &idtoken.Payload{Subject: "g-1", Claims: map[string]interface{}{
			"email": "a@b.com", "email_verified": true, "name": "Ana", "picture": "https://img/a.png",
		}}, nil
	}

	id, err := g.Verify(context.Background(), "good")
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if id.Subject != "g-1" || id.Email != "a@b.com" || id.Name != "Ana" || id.Avatar != "https://img/a.png" {
		t.Fatalf("unexpected identity: %+v", id)
	}

	if _, err := g.Verify(context.Background(), "bad"); !errors.Is(err, domain.ErrFederatedAuthFailed) {
		t.Fatalf("expected ErrFederatedAuthFailed, got %v", err)
	}
}

func TestGoogle_UnverifiedEmail(t *testing.T) {
	g := NewGoogle("cid")
	g.validate = func(context.Context, string, string) (*idtoken.Payload, error) {
		return &idtoken.Payload{Subject: "g-1", Claims: map[string]interface{}{"email": "a@b.com", "email_verified": false}}, nil
	}
	if _, err := g.Verify(context.Background(), "tok"); !errors.Is(err, domain.ErrFederatedAuthFailed) {
		t.Fatalf("expected ErrFederatedAuthFailed, got %v", err)
	}
}

func newFacebookServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"user-token","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer user-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"fb-1","name":"Ana","email":"a@b.com","picture":{"data":{"url":"https://img/fb.png"}}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFacebook_Verify(t *testing.T) {
	srv := newFacebookServer(t)
	fb := NewFacebook(FacebookConfig{ClientID: "fb", ClientSecret: "secret", RedirectURL: "https://api/cb"})
	fb.oauth.Endpoint = oauth2.Endpoint{TokenURL: srv.URL + "/token", AuthURL: srv.URL + "/dialog"}
	fb.graphURL = srv.URL

	id, err := fb.Verify(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if id.Subject != "fb-1" || id.Email != "a@b.com" || id.Avatar != "https://img/fb.png" {
		t.Fatalf("unexpected identity: %+v", id)
	}

	if _, err := fb.Verify(context.Background(), "bad-code"); !errors.Is(err, domain.ErrFederatedAuthFailed) {
		t.Fatalf("expected ErrFederatedAuthFailed, got %v", err)
	}
}

func TestFacebook_AuthCodeURL(t *testing.T) {
	fb := NewFacebook(FacebookConfig{ClientID: "fb", RedirectURL: "https://api/cb"})
	raw := fb.AuthCodeURL("state-1")

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := u.Query()
	if q.Get("state") != "state-1" || q.Get("client_id") != "fb" || q.Get("redirect_uri") != "https://api/cb" {
		t.Fatalf("unexpected consent url: %s", raw)
	}
}
