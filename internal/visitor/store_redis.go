package visitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"gatewatch/pkg/platform/sentinel"
)

const grantKeyPrefix = "gatewatch:grant:"

// RedisGrantStore persists grants in Redis with a TTL matching the grant
// expiry, so the backend drops grants on its own even across restarts. The
// manager's sweep still runs for parity with the in-memory store; here it is
// a cleanup of stragglers whose TTL rounding left them behind.
type RedisGrantStore struct {
	client *redis.Client
}

// NewRedisGrantStore constructs a Redis-backed grant store.
func NewRedisGrantStore(client *redis.Client) *RedisGrantStore {
	return &RedisGrantStore{client: client}
}

type grantRecord struct {
	SubjectID string    `json:"subject_id"`
	Name      string    `json:"name"`
	Expiry    time.Time `json:"expiry"`
}

func grantKey(subjectID uuid.UUID) string {
	return grantKeyPrefix + subjectID.String()
}

func (s *RedisGrantStore) Put(ctx context.Context, grant Grant) error {
	payload, err := json.Marshal(grantRecord{
		SubjectID: grant.SubjectID.String(),
		Name:      grant.Name,
		Expiry:    grant.Expiry,
	})
	if err != nil {
		return fmt.Errorf("marshal grant: %w", err)
	}
	ttl := time.Until(grant.Expiry)
	if ttl <= 0 {
		return fmt.Errorf("grant already expired: %w", sentinel.ErrInvalidState)
	}
	if err := s.client.Set(ctx, grantKey(grant.SubjectID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("store grant: %w", err)
	}
	return nil
}

func (s *RedisGrantStore) Get(ctx context.Context, subjectID uuid.UUID) (Grant, error) {
	raw, err := s.client.Get(ctx, grantKey(subjectID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Grant{}, fmt.Errorf("grant for %s: %w", subjectID, sentinel.ErrNotFound)
	}
	if err != nil {
		return Grant{}, fmt.Errorf("fetch grant: %w", err)
	}
	return decodeGrant(raw)
}

func (s *RedisGrantStore) Delete(ctx context.Context, subjectID uuid.UUID) error {
	deleted, err := s.client.Del(ctx, grantKey(subjectID)).Result()
	if err != nil {
		return fmt.Errorf("delete grant: %w", err)
	}
	if deleted == 0 {
		return fmt.Errorf("grant for %s: %w", subjectID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *RedisGrantStore) List(ctx context.Context) ([]Grant, error) {
	var out []Grant
	iter := s.client.Scan(ctx, 0, grantKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		raw, err := s.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue // expired between SCAN and GET
		}
		if err != nil {
			return nil, fmt.Errorf("fetch grant: %w", err)
		}
		grant, err := decodeGrant(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, grant)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan grants: %w", err)
	}
	return out, nil
}

func (s *RedisGrantStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	iter := s.client.Scan(ctx, 0, grantKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		raw, err := s.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("fetch grant: %w", err)
		}
		grant, err := decodeGrant(raw)
		if err != nil {
			return removed, err
		}
		if !grant.Expiry.After(cutoff) {
			if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
				return removed, fmt.Errorf("delete grant: %w", err)
			}
			removed++
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("scan grants: %w", err)
	}
	return removed, nil
}

func decodeGrant(raw []byte) (Grant, error) {
	var rec grantRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Grant{}, fmt.Errorf("decode grant: %w", err)
	}
	subjectID, err := uuid.Parse(rec.SubjectID)
	if err != nil {
		return Grant{}, fmt.Errorf("decode grant subject: %w", err)
	}
	return Grant{SubjectID: subjectID, Name: rec.Name, Expiry: rec.Expiry}, nil
}

var _ GrantStore = (*RedisGrantStore)(nil)
