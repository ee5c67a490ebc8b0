package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"douyin_youtube_tool/config"
	"douyin_youtube_tool/internal/domain"
	httpclient "douyin_youtube_tool/internal/infrastructure/http"
	"douyin_youtube_tool/internal/logger"
)

const (
	scopeYouTube       = "https://www.googleapis.com/auth/youtube"
	scopeYouTubeUpload = "https://www.googleapis.com/auth/youtube.upload"

	googleAuthURL  = "https://accounts.google.com/o/oauth2/auth"
	googleTokenURL = "https://oauth2.googleapis.com/token"
)

// demoKeys short-circuit API-key login into demo mode without any network call
var demoKeys = map[string]bool{
	"demo":    true,
	"test":    true,
	"example": true,
}

// Credential is the capability handle produced by exactly one authentication
// method per session.
type Credential interface {
	// Method identifies how the credential was obtained
	Method() domain.AuthMethod

	// Access is the capability level the credential grants
	Access() domain.AccessLevel

	// Apply authorizes an outgoing API request
	Apply(req *http.Request) error
}

// oauthCredential carries a refreshing token source. Refreshed tokens are
// written back to the cache so the next run skips the consent flow.
type oauthCredential struct {
	mu     sync.Mutex
	source oauth2.TokenSource
	store  *tokenStore
	last   string
}

func (c *oauthCredential) Method() domain.AuthMethod { return domain.AuthMethodOAuth }
func (c *oauthCredential) Access() domain.AccessLevel {
	return domain.AccessReadWrite
}

func (c *oauthCredential) Apply(req *http.Request) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	token, err := c.source.Token()
	if err != nil {
		return domain.NewFault(domain.FaultAuth, "authorize request",
			fmt.Errorf("token unavailable, re-run login: %w", err))
	}
	if token.AccessToken != c.last {
		c.last = token.AccessToken
		if err := c.store.Save(token); err != nil {
			logger.Warnf("could not persist refreshed token: %v", err)
		}
	}
	token.SetAuthHeader(req)
	return nil
}

// apiKeyCredential authorizes read calls with a developer key
type apiKeyCredential struct {
	key string
}

func (c *apiKeyCredential) Method() domain.AuthMethod  { return domain.AuthMethodAPIKey }
func (c *apiKeyCredential) Access() domain.AccessLevel { return domain.AccessReadOnly }

func (c *apiKeyCredential) Apply(req *http.Request) error {
	query := req.URL.Query()
	query.Set("key", c.key)
	req.URL.RawQuery = query.Encode()
	return nil
}

// demoCredential is the credential-less stub; it never reaches the network
type demoCredential struct{}

func (demoCredential) Method() domain.AuthMethod  { return domain.AuthMethodDemo }
func (demoCredential) Access() domain.AccessLevel { return domain.AccessReadWrite }
func (demoCredential) Apply(*http.Request) error  { return nil }

// Authenticator produces a Credential via one of three mutually exclusive
// methods.
type Authenticator struct {
	config     *config.Config
	httpClient *httpclient.HTTPClient
	store      *tokenStore

	// apiBaseURL is swapped out in tests
	apiBaseURL string
}

// NewAuthenticator creates an authenticator backed by the configured token
// cache file.
func NewAuthenticator(cfg *config.Config, httpClient *httpclient.HTTPClient) *Authenticator {
	return &Authenticator{
		config:     cfg,
		httpClient: httpClient,
		store:      newTokenStore(cfg.YouTubeTokenFile),
		apiBaseURL: defaultAPIBaseURL,
	}
}

// LoginOAuth loads a cached token when possible, refreshes a stale one in
// place, and otherwise runs the interactive consent flow. The resulting
// credential grants upload capability.
func (a *Authenticator) LoginOAuth(ctx context.Context) (Credential, error) {
	oauthCfg, err := a.loadClientSecrets()
	if err != nil {
		return nil, err
	}

	cached, err := a.store.Load()
	if err != nil {
		logger.Warnf("token cache unreadable, starting fresh: %v", err)
		cached = nil
	}

	var token *oauth2.Token
	if cached != nil && (cached.Valid() || cached.RefreshToken != "") {
		// TokenSource refreshes in place when the access token expired
		token, err = oauthCfg.TokenSource(ctx, cached).Token()
		if err != nil {
			logger.Warnf("cached token could not be refreshed: %v", err)
			token = nil
		}
	}

	if token == nil {
		token, err = a.runConsentFlow(ctx, oauthCfg)
		if err != nil {
			return nil, err
		}
	}

	if err := a.store.Save(token); err != nil {
		return nil, err
	}

	return &oauthCredential{
		source: oauthCfg.TokenSource(ctx, token),
		store:  a.store,
		last:   token.AccessToken,
	}, nil
}

// LoginAPIKey validates a developer key against the remote API. The reserved
// literals demo/test/example short-circuit into demo mode without a network
// call. The resulting credential is read-only.
func (a *Authenticator) LoginAPIKey(ctx context.Context, key string) (Credential, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, domain.NewFault(domain.FaultValidation, "api key login",
			fmt.Errorf("empty API key"))
	}
	if demoKeys[strings.ToLower(key)] {
		logger.Infof("reserved API key %q, switching to demo mode", key)
		return demoCredential{}, nil
	}

	cred := &apiKeyCredential{key: key}
	if err := a.validateAPIKey(ctx, cred); err != nil {
		return nil, err
	}
	return cred, nil
}

// Demo returns the credential-less stub.
func (a *Authenticator) Demo() Credential {
	return demoCredential{}
}

// Logout clears the cached token so the next login starts fresh.
func (a *Authenticator) Logout() error {
	return a.store.Delete()
}

// validateAPIKey issues a cheap read call to prove the key works.
func (a *Authenticator) validateAPIKey(ctx context.Context, cred Credential) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.apiBaseURL+"/i18nLanguages?part=snippet", nil)
	if err != nil {
		return err
	}
	if err := cred.Apply(req); err != nil {
		return err
	}

	resp, err := a.httpClient.DoAPI(req)
	if err != nil {
		return domain.NewFault(domain.FaultTransport, "api key login", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.NewFault(domain.FaultAuth, "api key login",
			fmt.Errorf("key rejected with HTTP %d; check the key in the developer console", resp.StatusCode))
	}
	return nil
}

// clientSecrets mirrors the downloaded client configuration file
type clientSecrets struct {
	Installed *clientSecretsEntry `json:"installed"`
	Web       *clientSecretsEntry `json:"web"`
}

type clientSecretsEntry struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	AuthURI      string `json:"auth_uri"`
	TokenURI     string `json:"token_uri"`
}

func (a *Authenticator) loadClientSecrets() (*oauth2.Config, error) {
	path := a.config.YouTubeCredentialsFile
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewFault(domain.FaultAuth, "oauth login",
			fmt.Errorf("credentials file %q not found; download it from the API console: %w", path, err))
	}

	var secrets clientSecrets
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, domain.NewFault(domain.FaultAuth, "oauth login",
			fmt.Errorf("credentials file %q is not valid JSON: %w", path, err))
	}

	entry := secrets.Installed
	if entry == nil {
		entry = secrets.Web
	}
	if entry == nil || entry.ClientID == "" {
		return nil, domain.NewFault(domain.FaultAuth, "oauth login",
			fmt.Errorf("credentials file %q carries no installed or web client", path))
	}

	authURL := entry.AuthURI
	if authURL == "" {
		authURL = googleAuthURL
	}
	tokenURL := entry.TokenURI
	if tokenURL == "" {
		tokenURL = googleTokenURL
	}

	return &oauth2.Config{
		ClientID:     entry.ClientID,
		ClientSecret: entry.ClientSecret,
		Scopes:       []string{scopeYouTube, scopeYouTubeUpload},
		Endpoint: oauth2.Endpoint{
			AuthURL:  authURL,
			TokenURL: tokenURL,
		},
	}, nil
}

// runConsentFlow starts a loopback listener, prints the consent URL and
// exchanges the returned code for a token.
func (a *Authenticator) runConsentFlow(ctx context.Context, oauthCfg *oauth2.Config) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, domain.NewFault(domain.FaultAuth, "oauth login",
			fmt.Errorf("cannot start loopback listener: %w", err))
	}
	defer listener.Close()

	cfg := *oauthCfg
	cfg.RedirectURL = fmt.Sprintf("http://%s/", listener.Addr().String())

	state := uuid.NewString()
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	server := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			errCh <- fmt.Errorf("state mismatch in consent callback")
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			errCh <- fmt.Errorf("consent callback carried no code")
			return
		}
		fmt.Fprintln(w, "Authorization complete. You can close this tab.")
		codeCh <- code
	})}
	go server.Serve(listener)
	defer server.Close()

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
	logger.Infof("open this URL in your browser to authorize: %s", authURL)

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return nil, domain.NewFault(domain.FaultAuth, "oauth login", err)
	case <-ctx.Done():
		return nil, domain.NewFault(domain.FaultAuth, "oauth login", ctx.Err())
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, domain.NewFault(domain.FaultAuth, "oauth login",
			fmt.Errorf("code exchange failed: %w", err))
	}
	return token, nil
}
