// Package oauthsession implements the OAuth Session (C4): loopback
// authorization-code exchange with PKCE, browser launch with a print
// fallback, and an encrypted on-disk token cache with lazy refresh.
package oauthsession

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/viant/mcporter/internal/mcperrors"
	"github.com/viant/mcporter/internal/model"
)

// callbackTimeout bounds how long Authorize waits for the user to complete
// the browser flow before giving up.
const callbackTimeout = 3 * time.Minute

// Provider implements orchestrator.OAuthProvider: one Authorize call per
// connect attempt, serialized per server so two concurrent callers for the
// same unauthenticated server do not open two browser tabs.
type Provider struct {
	httpClient *http.Client
	store      *fileStore
	out        io.Writer
	logger     *log.Logger

	mu      sync.Mutex
	perName map[string]*sync.Mutex
}

// New returns a Provider that prints the authorization URL to out when the
// browser cannot be launched (out defaults to os.Stderr-equivalent via the
// caller-supplied writer).
func New(out io.Writer, logger *log.Logger) *Provider {
	if logger == nil {
		logger = log.Default()
	}
	return &Provider{
		httpClient: http.DefaultClient,
		store:      newFileStore(),
		out:        out,
		logger:     logger,
		perName:    map[string]*sync.Mutex{},
	}
}

// Authorize returns a bearer token for def, refreshing or re-running the
// interactive flow as needed, and persists the result to def.TokenCacheDir.
func (p *Provider) Authorize(ctx context.Context, def model.ServerDefinition) (string, error) {
	lock := p.lockFor(def.Name)
	lock.Lock()
	defer lock.Unlock()

	cached, err := p.store.load(ctx, def.TokenCacheDir)
	if err != nil {
		p.logger.Printf("mcporter: warning: failed to read cached token for %q: %v", def.Name, err)
	}
	if cached != nil && !cached.expired() {
		return cached.AccessToken, nil
	}

	ep, err := discover(ctx, p.httpClient, def.Command.URL)
	if err != nil {
		return "", mcperrors.New(mcperrors.Unauthorized, def.Name, err)
	}

	clientID := def.ClientName
	if clientID == "" {
		clientID = "mcporter"
	}

	if cached != nil && cached.RefreshToken != "" {
		cfg := &oauth2.Config{ClientID: clientID, Endpoint: oauth2.Endpoint{AuthURL: ep.AuthURL, TokenURL: ep.TokenURL}}
		src := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cached.RefreshToken})
		if tok, err := src.Token(); err == nil {
			p.persist(ctx, def, tok)
			return tok.AccessToken, nil
		}
		// Refresh failed (revoked/expired refresh token): fall through to a
		// full interactive re-authorization.
	}

	return p.interactive(ctx, def, ep, clientID)
}

func (p *Provider) interactive(ctx context.Context, def model.ServerDefinition, ep *endpoints, clientID string) (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", mcperrors.New(mcperrors.Unauthorized, def.Name, fmt.Errorf("open loopback listener: %w", err))
	}
	defer listener.Close()

	redirectURL := def.OAuthRedirectURL
	if redirectURL == "" {
		redirectURL = fmt.Sprintf("http://127.0.0.1:%d/callback", listener.Addr().(*net.TCPAddr).Port)
	}

	cfg := &oauth2.Config{
		ClientID:    clientID,
		Endpoint:    oauth2.Endpoint{AuthURL: ep.AuthURL, TokenURL: ep.TokenURL},
		RedirectURL: redirectURL,
	}

	state := randomToken()
	verifier := oauth2.GenerateVerifier()
	authURL := cfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			errCh <- mcperrors.New(mcperrors.Unauthorized, def.Name, fmt.Errorf("oauth callback state mismatch"))
			return
		}
		if errParam := q.Get("error"); errParam != "" {
			http.Error(w, errParam, http.StatusBadRequest)
			errCh <- mcperrors.New(mcperrors.Unauthorized, def.Name, fmt.Errorf("authorization denied: %s", errParam))
			return
		}
		fmt.Fprint(w, "mcporter: authorization complete, you may close this tab.")
		codeCh <- q.Get("code")
	})
	server := &http.Server{Handler: mux}
	go server.Serve(listener)
	defer server.Close()

	if err := openBrowser(authURL); err != nil {
		promptURL(p.out, authURL)
	} else {
		p.logger.Printf("mcporter: opened browser for %q authorization", def.Name)
	}

	select {
	case code := <-codeCh:
		tok, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
		if err != nil {
			return "", mcperrors.New(mcperrors.Unauthorized, def.Name, fmt.Errorf("token exchange: %w", err))
		}
		p.persist(ctx, def, tok)
		return tok.AccessToken, nil
	case err := <-errCh:
		return "", err
	case <-time.After(callbackTimeout):
		return "", mcperrors.New(mcperrors.Unauthorized, def.Name, fmt.Errorf("timed out waiting for authorization"))
	case <-ctx.Done():
		return "", mcperrors.New(mcperrors.Unauthorized, def.Name, ctx.Err())
	}
}

func (p *Provider) persist(ctx context.Context, def model.ServerDefinition, tok *oauth2.Token) {
	stored := &storedToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}
	if err := p.store.save(ctx, def.TokenCacheDir, stored); err != nil {
		p.logger.Printf("mcporter: warning: failed to persist token for %q: %v", def.Name, err)
	}
}

func (p *Provider) lockFor(name string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.perName[name]
	if !ok {
		l = &sync.Mutex{}
		p.perName[name] = l
	}
	return l
}

func randomToken() string {
	return uuid.New().String()
}
