package usecase

import (
	"context"

	"douyin_youtube_tool/config"
	"douyin_youtube_tool/internal/domain"
	httpclient "douyin_youtube_tool/internal/infrastructure/http"
	"douyin_youtube_tool/internal/infrastructure/media"
	"douyin_youtube_tool/internal/infrastructure/youtube"
	"douyin_youtube_tool/internal/logger"
)

// AuthManager turns a login request into a fully wired session: credential,
// read client and uploader together, so the rest of the application never
// sees a half-authenticated state.
type AuthManager struct {
	config     *config.Config
	auth       *youtube.Authenticator
	httpClient *httpclient.HTTPClient
	analyzer   *media.Analyzer
	optimizer  *media.Optimizer
	session    *Session
}

// NewAuthManager wires the authentication flow.
func NewAuthManager(
	cfg *config.Config,
	auth *youtube.Authenticator,
	httpClient *httpclient.HTTPClient,
	analyzer *media.Analyzer,
	optimizer *media.Optimizer,
	session *Session,
) *AuthManager {
	return &AuthManager{
		config:     cfg,
		auth:       auth,
		httpClient: httpClient,
		analyzer:   analyzer,
		optimizer:  optimizer,
		session:    session,
	}
}

// LoginOAuth runs the OAuth flow and installs the resulting credential.
func (m *AuthManager) LoginOAuth(ctx context.Context) (Snapshot, error) {
	cred, err := m.auth.LoginOAuth(ctx)
	if err != nil {
		return m.session.Snapshot(), err
	}
	m.install(cred)
	logger.Infof("authenticated via %s with %s access", cred.Method(), cred.Access())
	return m.session.Snapshot(), nil
}

// LoginAPIKey validates the key and installs a read-only credential. The
// reserved demo keys switch the session into demo mode instead.
func (m *AuthManager) LoginAPIKey(ctx context.Context, key string) (Snapshot, error) {
	cred, err := m.auth.LoginAPIKey(ctx, key)
	if err != nil {
		return m.session.Snapshot(), err
	}
	m.install(cred)
	logger.Infof("authenticated via %s with %s access", cred.Method(), cred.Access())
	return m.session.Snapshot(), nil
}

// LoginDemo installs the credential-less demo stub.
func (m *AuthManager) LoginDemo() Snapshot {
	m.install(m.auth.Demo())
	logger.Infof("demo mode active, no network calls will be made")
	return m.session.Snapshot()
}

// Logout clears the session and the cached token.
func (m *AuthManager) Logout() error {
	m.session.ClearAuth()
	return m.auth.Logout()
}

func (m *AuthManager) install(cred youtube.Credential) {
	var api youtube.VideoAPI
	if cred.Method() == domain.AuthMethodDemo {
		api = youtube.NewDemoClient()
	} else {
		api = youtube.NewService(m.httpClient, cred)
	}
	uploader := youtube.NewUploader(m.config, m.httpClient, cred, api, m.analyzer, m.optimizer)
	m.session.SetAuthenticated(cred, api, uploader)
}
