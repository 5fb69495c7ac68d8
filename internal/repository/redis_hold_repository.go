package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/showgate/ticketd/internal/domain"
)

// createHoldScript claims inventory atomically: the hold hash, the expiry
// index and the per-event counter move together or not at all.
const createHoldScript = `
local hold_key = KEYS[1]
local index_key = KEYS[2]
local counter_key = KEYS[3]

local hold_id = ARGV[1]
local event_id = ARGV[2]
local section_id = ARGV[3]
local user_id = ARGV[4]
local quantity = tonumber(ARGV[5])
local created_at = tonumber(ARGV[6])

if not quantity or quantity <= 0 then
    return {0, "INVALID_QUANTITY"}
end

if redis.call("EXISTS", hold_key) == 1 then
    return {0, "HOLD_EXISTS"}
end

redis.call("HSET", hold_key,
    "id", hold_id,
    "event_id", event_id,
    "section_id", section_id,
    "user_id", user_id,
    "quantity", quantity,
    "created_at", created_at
)
redis.call("ZADD", index_key, created_at, hold_id)
local held = redis.call("INCRBY", counter_key, quantity)

return {1, held}
`

// releaseHoldScript returns a hold's inventory. Releasing a hold that no
// longer exists reports 0 without touching the counter, so sweeper and
// checkout completion can race safely.
const releaseHoldScript = `
local hold_key = KEYS[1]
local index_key = KEYS[2]

local hold_id = ARGV[1]
local counter_prefix = ARGV[2]

local hold = redis.call("HGETALL", hold_key)
if #hold == 0 then
    return {0, "HOLD_NOT_FOUND"}
end

local data = {}
for i = 1, #hold, 2 do
    data[hold[i]] = hold[i + 1]
end

local quantity = tonumber(data["quantity"]) or 0
local counter_key = counter_prefix .. data["event_id"]

redis.call("DEL", hold_key)
redis.call("ZREM", index_key, hold_id)
local held = redis.call("DECRBY", counter_key, quantity)
if held < 0 then
    redis.call("SET", counter_key, 0)
end

return {1, quantity}
`

const (
	holdKeyPrefix  = "ticketd:hold:"
	holdIndexKey   = "ticketd:holds:index"
	holdCounterPfx = "ticketd:holds:event:"
)

// RedisHoldRepository implements HoldRepository on Redis. Holds are hot,
// short-lived state and never touch PostgreSQL.
type RedisHoldRepository struct {
	client        *goredis.Client
	createScript  *goredis.Script
	releaseScript *goredis.Script
}

// NewRedisHoldRepository creates a new RedisHoldRepository
func NewRedisHoldRepository(client *goredis.Client) *RedisHoldRepository {
	return &RedisHoldRepository{
		client:        client,
		createScript:  goredis.NewScript(createHoldScript),
		releaseScript: goredis.NewScript(releaseHoldScript),
	}
}

// CreateHold claims inventory for a checkout in progress
func (r *RedisHoldRepository) CreateHold(ctx context.Context, hold *domain.Hold) error {
	keys := []string{
		holdKeyPrefix + hold.ID,
		holdIndexKey,
		holdCounterPfx + hold.EventID,
	}
	result, err := r.createScript.Run(ctx, r.client, keys,
		hold.ID, hold.EventID, hold.SectionID, hold.UserID,
		hold.Quantity, hold.CreatedAt.Unix()).Slice()
	if err != nil {
		return fmt.Errorf("create hold %s: %w", hold.ID, err)
	}
	if ok, _ := result[0].(int64); ok != 1 {
		return fmt.Errorf("%w: hold %s rejected: %v", domain.ErrConflict, hold.ID, result[1])
	}
	return nil
}

// ReleaseHold returns a hold's inventory; a missing hold reports false
func (r *RedisHoldRepository) ReleaseHold(ctx context.Context, holdID string) (bool, error) {
	keys := []string{holdKeyPrefix + holdID, holdIndexKey}
	result, err := r.releaseScript.Run(ctx, r.client, keys, holdID, holdCounterPfx).Slice()
	if err != nil {
		return false, fmt.Errorf("release hold %s: %w", holdID, err)
	}
	ok, _ := result[0].(int64)
	return ok == 1, nil
}

// ListExpired returns holds created before the cutoff, oldest first
func (r *RedisHoldRepository) ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Hold, error) {
	ids, err := r.client.ZRangeByScore(ctx, holdIndexKey, &goredis.ZRangeBy{
		Min:   "-inf",
		Max:   "(" + strconv.FormatInt(cutoff.Unix(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, err
	}

	var holds []*domain.Hold
	for _, id := range ids {
		data, err := r.client.HGetAll(ctx, holdKeyPrefix+id).Result()
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			// Released between the index scan and the hash read
			continue
		}
		hold, err := holdFromHash(data)
		if err != nil {
			return nil, err
		}
		holds = append(holds, hold)
	}
	return holds, nil
}

// CountHeld counts currently held tickets for an event
func (r *RedisHoldRepository) CountHeld(ctx context.Context, eventID string) (int, error) {
	held, err := r.client.Get(ctx, holdCounterPfx+eventID).Int()
	if err != nil {
		if err == goredis.Nil {
			return 0, nil
		}
		return 0, err
	}
	if held < 0 {
		held = 0
	}
	return held, nil
}

func holdFromHash(data map[string]string) (*domain.Hold, error) {
	quantity, err := strconv.Atoi(data["quantity"])
	if err != nil {
		return nil, fmt.Errorf("parse hold quantity: %w", err)
	}
	createdAt, err := strconv.ParseInt(data["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse hold created_at: %w", err)
	}
	return &domain.Hold{
		ID:        data["id"],
		EventID:   data["event_id"],
		SectionID: data["section_id"],
		UserID:    data["user_id"],
		Quantity:  quantity,
		CreatedAt: time.Unix(createdAt, 0).UTC(),
	}, nil
}
