package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"veggie-trivia-service/internal/domain"
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SessionStore keeps each player's SessionState as JSON under
// trivia:session:{id} with a sliding TTL. Update takes a per-session lock
// (SET NX PX + token) so mutations are serialized across server instances.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	lockTTL  time.Duration
	lockWait time.Duration
	retry    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		lockTTL:  10 * time.Second,
		lockWait: 5 * time.Second,
		retry:    10 * time.Millisecond,
	}
}

// ErrLockTimeout is returned when another request held the session lock for too long.
var ErrLockTimeout = errors.New("timed out waiting for session lock")

func (s *SessionStore) Create(ctx context.Context, state *domain.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(state.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*domain.SessionState, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var state domain.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &state, nil
}

func (s *SessionStore) Update(ctx context.Context, id string, fn func(*domain.SessionState) error) error {
	token, err := s.lock(ctx, id)
	if err != nil {
		return err
	}
	// context.Background so a canceled request still releases its lock.
	defer releaseScript.Run(context.Background(), s.client, []string{s.lockKey(id)}, token)

	state, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	fnErr := fn(state)
	if err := s.Create(ctx, state); err != nil {
		return errors.Join(fnErr, err)
	}
	return fnErr
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

func (s *SessionStore) lock(ctx context.Context, id string) (string, error) {
	token := uuid.New().String()
	deadline := time.Now().Add(s.lockWait)
	for {
		ok, err := s.client.SetNX(ctx, s.lockKey(id), token, s.lockTTL).Result()
		if err != nil {
			return "", fmt.Errorf("acquire session lock: %w", err)
		}
		if ok {
			return token, nil
		}
		if time.Now().After(deadline) {
			return "", ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.retry):
		}
	}
}

func (s *SessionStore) key(id string) string {
	return "trivia:session:" + id
}

func (s *SessionStore) lockKey(id string) string {
	return "trivia:session:" + id + ":lock"
}
