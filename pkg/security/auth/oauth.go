package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/ewellner/daybridge/pkg/config"
)

// OAuthStateStore tracks state tokens issued to in-flight authorization
// requests so the callback can reject forged redirects.
type OAuthStateStore struct {
	states map[string]stateData
	mu     sync.RWMutex
}

type stateData struct {
	ExpiresAt time.Time
	Provider  string
}

var (
	stateStore     *OAuthStateStore
	stateStoreOnce sync.Once
)

func GetStateStore() *OAuthStateStore {
	stateStoreOnce.Do(func() {
		stateStore = &OAuthStateStore{states: make(map[string]stateData)}
	})
	return stateStore
}

// GenerateState mints a state token valid for ten minutes.
func (s *OAuthStateStore) GenerateState(provider string) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := base64.URLEncoding.EncodeToString(b)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state] = stateData{
		ExpiresAt: time.Now().Add(10 * time.Minute),
		Provider:  provider,
	}
	return state, nil
}

// ValidateState consumes a state token; a token validates at most once.
func (s *OAuthStateStore) ValidateState(state, provider string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, exists := s.states[state]
	if !exists {
		return false
	}
	if time.Now().After(data.ExpiresAt) {
		delete(s.states, state)
		return false
	}
	if data.Provider != provider {
		return false
	}
	delete(s.states, state)
	return true
}

// CleanupExpiredStates drops tokens whose window has passed.
func (s *OAuthStateStore) CleanupExpiredStates() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for state, data := range s.states {
		if now.After(data.ExpiresAt) {
			delete(s.states, state)
		}
	}
}

// UserInfo is the normalized identity returned by a provider's userinfo
// endpoint. Field names vary across providers; the common ones are mapped.
type UserInfo struct {
	ID       string
	Email    string
	Name     string
	Picture  string
	Provider string
}

// OAuthService runs the authorization-code flow against the configured
// providers. The granted access token doubles as the calendar token for
// providers whose scopes include calendar access.
type OAuthService struct {
	providers map[string]*oauth2.Config
	cfg       *config.Config
}

func NewOAuthService(cfg *config.Config) *OAuthService {
	service := &OAuthService{
		providers: make(map[string]*oauth2.Config),
		cfg:       cfg,
	}

	for name, providerCfg := range cfg.Auth.OAuth2Providers {
		service.providers[name] = &oauth2.Config{
			ClientID:     providerCfg.ClientID,
			ClientSecret: providerCfg.ClientSecret,
			RedirectURL:  providerCfg.RedirectURL,
			Scopes:       providerCfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  providerCfg.AuthURL,
				TokenURL: providerCfg.TokenURL,
			},
		}
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			GetStateStore().CleanupExpiredStates()
		}
	}()

	return service
}

// GetAuthURL returns a provider's authorization URL plus the state token
// bound to it.
func (s *OAuthService) GetAuthURL(provider string) (string, string, error) {
	cfg, exists := s.providers[provider]
	if !exists {
		return "", "", fmt.Errorf("unknown OAuth provider: %s", provider)
	}

	state, err := GetStateStore().GenerateState(provider)
	if err != nil {
		return "", "", err
	}
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOffline), state, nil
}

// Exchange trades an authorization code for a token.
func (s *OAuthService) Exchange(ctx context.Context, provider, code string) (*oauth2.Token, error) {
	cfg, exists := s.providers[provider]
	if !exists {
		return nil, fmt.Errorf("unknown OAuth provider: %s", provider)
	}
	return cfg.Exchange(ctx, code)
}

// GetUserInfo fetches and normalizes the provider's userinfo payload.
func (s *OAuthService) GetUserInfo(ctx context.Context, provider string, token *oauth2.Token) (*UserInfo, error) {
	cfg, exists := s.providers[provider]
	if !exists {
		return nil, fmt.Errorf("unknown OAuth provider: %s", provider)
	}

	providerCfg, exists := s.cfg.Auth.OAuth2Providers[provider]
	if !exists || providerCfg.UserInfoURL == "" {
		return nil, errors.New("missing user info URL for provider")
	}

	client := cfg.Client(ctx, token)
	resp, err := client.Get(providerCfg.UserInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("failed to get user info: %s - %s", resp.Status, string(body))
	}

	var raw map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}

	info := &UserInfo{Provider: provider}
	if id, ok := raw["id"].(string); ok {
		info.ID = id
	} else if id, ok := raw["sub"].(string); ok {
		info.ID = id
	}
	if email, ok := raw["email"].(string); ok {
		info.Email = email
	}
	if name, ok := raw["name"].(string); ok {
		info.Name = name
	}
	if picture, ok := raw["picture"].(string); ok {
		info.Picture = picture
	} else if picture, ok := raw["avatar_url"].(string); ok {
		info.Picture = picture
	}
	return info, nil
}
