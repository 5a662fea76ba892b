package users

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/scorekeeper/internal/common"
	"github.com/dmitrijs2005/scorekeeper/internal/server/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Hash fields of a stored user document.
const (
	fieldID           = "id"
	fieldEmail        = "email"
	fieldPasswordHash = "password_hash"
	fieldScore        = "score"
)

const scanBatchSize = 100

// RedisRepository stores every user as a hash and keeps two secondary
// structures next to it:
//
//	<prefix>:user:<id>     hash {id, email, password_hash, score}
//	<prefix>:users:email   hash email -> id, the uniqueness constraint
//	<prefix>:users:score   sorted set id -> score, the ranking index
//
// The user hash is the source of truth; the sorted set can be rebuilt from
// it with RebuildIndexes.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) userKey(id string) string {
	return r.prefix + ":user:" + id
}

func (r *RedisRepository) emailIndexKey() string {
	return r.prefix + ":users:email"
}

func (r *RedisRepository) scoreIndexKey() string {
	return r.prefix + ":users:score"
}

// createUserScript claims the email and writes the user document in one
// atomic step. An email whose owner hash is missing is treated as free.
//
//	KEYS[1] email index, KEYS[2] new user hash, KEYS[3] score index
//	ARGV[1] email, ARGV[2] id, ARGV[3] password hash, ARGV[4] user key prefix
var createUserScript = redis.NewScript(`
local owner = redis.call('HGET', KEYS[1], ARGV[1])
if owner and redis.call('EXISTS', ARGV[4] .. owner) == 1 then
	return 0
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
redis.call('HSET', KEYS[2], 'id', ARGV[2], 'email', ARGV[1], 'password_hash', ARGV[3], 'score', 0)
redis.call('ZADD', KEYS[3], 0, ARGV[2])
return 1
`)

func (r *RedisRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	id := uuid.NewString()

	created, err := createUserScript.Run(ctx, r.client,
		[]string{r.emailIndexKey(), r.userKey(id), r.scoreIndexKey()},
		user.Email, id, user.PasswordHash, r.userKey(""),
	).Int()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if created == 0 {
		return nil, common.ErrorAlreadyExists
	}

	user.ID = id
	user.Score = 0
	return user, nil
}

func (r *RedisRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	id, err := r.client.HGet(ctx, r.emailIndexKey(), email).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return r.GetUserByID(ctx, id)
}

func (r *RedisRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	vals, err := r.client.HGetAll(ctx, r.userKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if len(vals) == 0 {
		return nil, common.ErrorNotFound
	}

	return parseUser(vals)
}

func (r *RedisRepository) IncrementScore(ctx context.Context, id string) (*models.User, error) {
	key := r.userKey(id)

	// users are never deleted, so an existing key stays valid for the MULTI below
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return nil, common.ErrorNotFound
	}

	var snapshot *redis.MapStringStringCmd
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HIncrBy(ctx, key, fieldScore, 1)
		p.ZIncrBy(ctx, r.scoreIndexKey(), 1, id)
		snapshot = p.HGetAll(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return parseUser(snapshot.Val())
}

func (r *RedisRepository) List(ctx context.Context) ([]*models.User, error) {
	ids, err := r.client.ZRange(ctx, r.scoreIndexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return r.fetchMany(ctx, ids)
}

func (r *RedisRepository) TopScores(ctx context.Context, limit int) ([]*models.User, error) {
	if limit <= 0 {
		return []*models.User{}, nil
	}

	ids, err := r.client.ZRevRange(ctx, r.scoreIndexKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return r.fetchMany(ctx, ids)
}

// fetchMany loads the users for ids in one round trip, preserving order.
// Ids whose hash is gone are skipped.
func (r *RedisRepository) fetchMany(ctx context.Context, ids []string) ([]*models.User, error) {
	result := make([]*models.User, 0, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err := r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = p.HGetAll(ctx, r.userKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	for _, cmd := range cmds {
		vals := cmd.Val()
		if len(vals) == 0 {
			continue
		}
		user, err := parseUser(vals)
		if err != nil {
			return nil, err
		}
		result = append(result, user)
	}

	return result, nil
}

// RebuildIndexes walks every user hash and restores its entries in the
// score and email indexes, then drops index entries that point at missing
// users. It returns the number of users indexed.
func (r *RedisRepository) RebuildIndexes(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		indexed int
	)

	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.userKey("*"), scanBatchSize).Result()
		if err != nil {
			return indexed, fmt.Errorf("db error: %w", err)
		}

		for _, key := range keys {
			vals, err := r.client.HGetAll(ctx, key).Result()
			if err != nil {
				return indexed, fmt.Errorf("db error: %w", err)
			}
			if len(vals) == 0 {
				continue
			}
			user, err := parseUser(vals)
			if err != nil {
				return indexed, err
			}

			_, err = r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
				p.ZAdd(ctx, r.scoreIndexKey(), redis.Z{Score: float64(user.Score), Member: user.ID})
				p.HSetNX(ctx, r.emailIndexKey(), user.Email, user.ID)
				return nil
			})
			if err != nil {
				return indexed, fmt.Errorf("db error: %w", err)
			}
			indexed++
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	if err := r.pruneIndexes(ctx); err != nil {
		return indexed, err
	}
	return indexed, nil
}

// pruneIndexes removes email and score index entries whose user hash is gone.
func (r *RedisRepository) pruneIndexes(ctx context.Context) error {
	emails, err := r.client.HGetAll(ctx, r.emailIndexKey()).Result()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	for email, id := range emails {
		n, err := r.client.Exists(ctx, r.userKey(id)).Result()
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if n == 0 {
			if err := r.client.HDel(ctx, r.emailIndexKey(), email).Err(); err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		}
	}

	ids, err := r.client.ZRange(ctx, r.scoreIndexKey(), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	for _, id := range ids {
		n, err := r.client.Exists(ctx, r.userKey(id)).Result()
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if n == 0 {
			if err := r.client.ZRem(ctx, r.scoreIndexKey(), id).Err(); err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		}
	}
	return nil
}

// Ping checks that the server is reachable.
func (r *RedisRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func parseUser(vals map[string]string) (*models.User, error) {
	score, err := strconv.ParseInt(vals[fieldScore], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("db error: corrupt score for user %q: %w", vals[fieldID], err)
	}

	return &models.User{
		ID:           vals[fieldID],
		Email:        vals[fieldEmail],
		PasswordHash: vals[fieldPasswordHash],
		Score:        score,
	}, nil
}
