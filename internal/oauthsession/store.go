package oauthsession

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/viant/scy"
)

// storedToken is the at-rest shape written to <tokenCacheDir>/tokens.json.
type storedToken struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	TokenType    string    `json:"tokenType"`
	Expiry       time.Time `json:"expiry"`
}

func (t *storedToken) expired() bool {
	if t == nil || t.AccessToken == "" {
		return true
	}
	if t.Expiry.IsZero() {
		return false
	}
	return time.Now().After(t.Expiry.Add(-30 * time.Second))
}

// fileStore persists tokens through scy, so the file on disk is encrypted at
// rest rather than a bare JSON blob of bearer credentials.
type fileStore struct {
	svc *scy.Service
	kms string
}

func newFileStore() *fileStore {
	return &fileStore{svc: scy.New(), kms: "blowfish://default"}
}

func tokensPath(dir string) string { return filepath.Join(dir, "tokens.json") }

func (s *fileStore) load(ctx context.Context, dir string) (*storedToken, error) {
	path := tokensPath(dir)
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}
	target := &storedToken{}
	resource := scy.NewResource(target, path, s.kms)
	secret, err := s.svc.Load(ctx, resource)
	if err != nil {
		return nil, err
	}
	tok, ok := secret.Target.(*storedToken)
	if !ok {
		return nil, nil
	}
	return tok, nil
}

// save writes tok to <dir>/tokens.json via scy, which takes care of writing
// through a temporary file and renaming into place so a concurrent reader
// never observes a partial write.
func (s *fileStore) save(ctx context.Context, dir string, tok *storedToken) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	resource := scy.NewResource(tok, tokensPath(dir), s.kms)
	secret := scy.NewSecret(tok, resource)
	return s.svc.Store(ctx, secret)
}
