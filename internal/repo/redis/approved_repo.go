package redis

import (
	"context"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"
)

const approvedKey = "botgate:approved"

// ApprovedRepo mirrors the set of approved entity IDs so approvals survive restarts.
type ApprovedRepo struct {
	client *goredis.Client
	key    string
}

func NewApprovedRepo(client *goredis.Client) *ApprovedRepo {
	return &ApprovedRepo{client: client, key: approvedKey}
}

func (r *ApprovedRepo) Add(ctx context.Context, entityID int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if entityID == 0 {
		return fmt.Errorf("entity id is required")
	}

	if err := r.client.SAdd(ctx, r.key, strconv.FormatInt(entityID, 10)).Err(); err != nil {
		return fmt.Errorf("add approved entity: %w", err)
	}
	return nil
}

func (r *ApprovedRepo) Members(ctx context.Context) ([]int64, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}

	raw, err := r.client.SMembers(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("list approved entities: %w", err)
	}

	result := make([]int64, 0, len(raw))
	for _, item := range raw {
		id, err := strconv.ParseInt(item, 10, 64)
		if err != nil {
			continue
		}
		result = append(result, id)
	}
	return result, nil
}

func (r *ApprovedRepo) Contains(ctx context.Context, entityID int64) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	ok, err := r.client.SIsMember(ctx, r.key, strconv.FormatInt(entityID, 10)).Result()
	if err != nil {
		return false, fmt.Errorf("check approved entity: %w", err)
	}
	return ok, nil
}
