package oauthsession

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// endpoints are the two URLs needed to run an Authorization Code flow.
type endpoints struct {
	AuthURL  string
	TokenURL string
}

// discover resolves endpoints for serverURL following RFC 8414
// (OAuth Authorization Server Metadata), the mechanism MCP servers use to
// advertise their authorization server rather than requiring it to be
// hand-configured per server. Falls back to the server's own origin with
// conventional /authorize and /token paths when no metadata document is
// published.
func discover(ctx context.Context, client *http.Client, serverURL string) (*endpoints, error) {
	origin, err := originOf(serverURL)
	if err != nil {
		return nil, err
	}

	for _, wellKnown := range []string{
		origin + "/.well-known/oauth-authorization-server",
		origin + "/.well-known/openid-configuration",
	} {
		if ep, ok := fetchMetadata(ctx, client, wellKnown); ok {
			return ep, nil
		}
	}

	return &endpoints{AuthURL: origin + "/authorize", TokenURL: origin + "/token"}, nil
}

func fetchMetadata(ctx context.Context, client *http.Client, metadataURL string) (*endpoints, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metadataURL, nil)
	if err != nil {
		return nil, false
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, false
	}
	var doc struct {
		AuthorizationEndpoint string `json:"authorization_endpoint"`
		TokenEndpoint         string `json:"token_endpoint"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, false
	}
	if doc.AuthorizationEndpoint == "" || doc.TokenEndpoint == "" {
		return nil, false
	}
	return &endpoints{AuthURL: doc.AuthorizationEndpoint, TokenURL: doc.TokenEndpoint}, true
}

func originOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	return strings.TrimSuffix(fmt.Sprintf("%s://%s", u.Scheme, u.Host), "/"), nil
}
