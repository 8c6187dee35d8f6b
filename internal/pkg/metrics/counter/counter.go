package counter

import (
	"context"
	"strconv"

	"github.com/openbankingng/monobridge/internal/pkg/cache"
)

const webhookCountersKey = "webhook:counters"

// Outcome fields tracked per webhook delivery. Duplicates are counted
// separately from stored events because the sender sees the same 200 for
// both; the counters are the only place the difference is visible.
const (
	FieldStored     = "stored"
	FieldDuplicate  = "duplicate"
	FieldRejected   = "rejected"
	FieldMalformed  = "malformed"
	FieldStoreError = "store_error"
)

// AddWebhookOutcome increments the counter for one delivery outcome in Redis.
// Counting is best effort; callers ignore the error on the hot path.
func AddWebhookOutcome(field string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, webhookCountersKey, field, 1).Err()
}

// Snapshot returns all webhook counters as integers.
func Snapshot() (map[string]int64, error) {
	ctx := context.Background()
	data, err := cache.GetClient().HGetAll(ctx, webhookCountersKey).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(data))
	for field, raw := range data {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		out[field] = n
	}
	return out, nil
}
