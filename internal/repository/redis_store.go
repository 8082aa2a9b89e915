package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"NotifyInvest/internal/domain/models"
)

// Redis key layout:
//
//	<prefix>:device:<token>  JSON Device record
//	<prefix>:devices         SET of known tokens
//	<prefix>:pref:<token>    JSON Preference record
//
// A preference save is a single SET of the whole record, which gives the
// required per-token atomicity (last writer wins on the full record).

// RedisRegistry implements DeviceRegistry on Redis.
type RedisRegistry struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisRegistry(client *redis.Client, prefix string) *RedisRegistry {
	if prefix == "" {
		prefix = "notifyinvest"
	}
	return &RedisRegistry{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisRegistry) Register(ctx context.Context, token string) (bool, error) {
	now := s.now().Unix()

	d, err := s.Get(ctx, token)
	if err != nil {
		return false, err
	}

	created := d == nil
	if created {
		d = &models.Device{Token: token, RegisteredAt: now}
	}
	d.LastSeen = now
	d.Active = true

	b, err := json.Marshal(d)
	if err != nil {
		return false, fmt.Errorf("marshal device: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.deviceKey(token), b, 0)
	pipe.SAdd(ctx, s.setKey(), token)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("register device: %w", err)
	}
	return created, nil
}

func (s *RedisRegistry) Get(ctx context.Context, token string) (*models.Device, error) {
	b, err := s.client.Get(ctx, s.deviceKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get device: %w", err)
	}
	var d models.Device
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("unmarshal device: %w", err)
	}
	return &d, nil
}

func (s *RedisRegistry) List(ctx context.Context) ([]*models.Device, error) {
	tokens, err := s.client.SMembers(ctx, s.setKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	keys := make([]string, len(tokens))
	for i, t := range tokens {
		keys[i] = s.deviceKey(t)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget devices: %w", err)
	}

	out := make([]*models.Device, 0, len(vals))
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue // token in set but record missing; skip
		}
		var d models.Device
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			continue
		}
		out = append(out, &d)
	}
	return out, nil
}

func (s *RedisRegistry) MarkInactive(ctx context.Context, token string) error {
	d, err := s.Get(ctx, token)
	if err != nil {
		return err
	}
	if d == nil {
		return nil
	}
	d.Active = false

	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal device: %w", err)
	}
	if err := s.client.Set(ctx, s.deviceKey(token), b, 0).Err(); err != nil {
		return fmt.Errorf("mark inactive: %w", err)
	}
	return nil
}

func (s *RedisRegistry) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisRegistry) Close() error {
	return s.client.Close()
}

func (s *RedisRegistry) deviceKey(token string) string {
	return fmt.Sprintf("%s:device:%s", s.prefix, token)
}

func (s *RedisRegistry) setKey() string {
	return fmt.Sprintf("%s:devices", s.prefix)
}

// RedisPrefs implements PreferenceStore on Redis.
type RedisPrefs struct {
	client *redis.Client
	prefix string
}

func NewRedisPrefs(client *redis.Client, prefix string) *RedisPrefs {
	if prefix == "" {
		prefix = "notifyinvest"
	}
	return &RedisPrefs{client: client, prefix: prefix}
}

func (s *RedisPrefs) Get(ctx context.Context, token string) (models.Preference, error) {
	b, err := s.client.Get(ctx, s.prefKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.DefaultPreference(), nil
		}
		return models.Preference{}, fmt.Errorf("get preference: %w", err)
	}
	var p models.Preference
	if err := json.Unmarshal(b, &p); err != nil {
		return models.Preference{}, fmt.Errorf("unmarshal preference: %w", err)
	}
	if p.Whitelist == nil {
		p.Whitelist = []string{}
	}
	if p.Blacklist == nil {
		p.Blacklist = []string{}
	}
	return p, nil
}

func (s *RedisPrefs) Save(ctx context.Context, token string, pref models.Preference) error {
	pref.Normalize()
	b, err := json.Marshal(pref)
	if err != nil {
		return fmt.Errorf("marshal preference: %w", err)
	}
	if err := s.client.Set(ctx, s.prefKey(token), b, 0).Err(); err != nil {
		return fmt.Errorf("save preference: %w", err)
	}
	return nil
}

func (s *RedisPrefs) prefKey(token string) string {
	return fmt.Sprintf("%s:pref:%s", s.prefix, token)
}
