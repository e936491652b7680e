package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
)

const tokenKeyPrefix = "billing:quickbooks:token:"

// TokenStore persists the OAuth token pair of a realm.
type TokenStore interface {
	// Load returns ErrNoTokens when nothing was stored for the realm.
	Load(ctx context.Context, realmID string) (*oauth2.Token, error)
	Save(ctx context.Context, realmID string, tok *oauth2.Token) error
}

type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]oauth2.Token
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]oauth2.Token)}
}

func (s *MemoryTokenStore) Load(_ context.Context, realmID string) (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tok, ok := s.tokens[realmID]
	if !ok {
		return nil, ErrNoTokens
	}
	return &tok, nil
}

func (s *MemoryTokenStore) Save(_ context.Context, realmID string, tok *oauth2.Token) error {
	if tok == nil {
		return errors.New("token is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[realmID] = *tok
	return nil
}

// RedisTokenStore keeps tokens in the shared cache so every instance refreshes
// against the same refresh token.
type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (s *RedisTokenStore) Load(ctx context.Context, realmID string) (*oauth2.Token, error) {
	raw, err := s.client.Get(ctx, tokenKeyPrefix+realmID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoTokens
	}
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &tok, nil
}

func (s *RedisTokenStore) Save(ctx context.Context, realmID string, tok *oauth2.Token) error {
	if tok == nil {
		return errors.New("token is nil")
	}
	payload, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	// refresh tokens outlive access tokens, so no TTL
	return s.client.Set(ctx, tokenKeyPrefix+realmID, payload, 0).Err()
}
