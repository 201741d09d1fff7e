package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"qrmenu/agg-svc/internal/domain"
)

const (
	statsTTL = 30 * 24 * time.Hour
	seenTTL  = 48 * time.Hour

	fieldOrdersCreated   = "orders_created"
	fieldOrdersCompleted = "orders_completed"
	fieldRevenue         = "revenue"
)

// Store keeps per-restaurant daily counters in Redis:
//
//	stats:daily:<date>:<restaurant>  hash of order counters and revenue
//	stats:scans:<date>:<restaurant>  sorted set of scans per table
//
// Kafka may redeliver, so every event is claimed once under stats:seen
// in the same script that counts it.
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func dailyKey(date, restaurantID string) string {
	return fmt.Sprintf("stats:daily:%s:%s", date, restaurantID)
}

func scansKey(date, restaurantID string) string {
	return fmt.Sprintf("stats:scans:%s:%s", date, restaurantID)
}

// Each script claims the event under KEYS[1] and applies its counters in one
// atomic step, so a failure can neither lose the event nor count it twice.
var (
	orderCreatedScript = redis.NewScript(`
if not redis.call('SET', KEYS[1], 1, 'NX', 'EX', ARGV[1]) then return 0 end
redis.call('HINCRBY', KEYS[2], ARGV[3], 1)
redis.call('EXPIRE', KEYS[2], ARGV[2])
return 1`)

	orderCompletedScript = redis.NewScript(`
if not redis.call('SET', KEYS[1], 1, 'NX', 'EX', ARGV[1]) then return 0 end
redis.call('HINCRBY', KEYS[2], ARGV[3], 1)
redis.call('HINCRBYFLOAT', KEYS[2], ARGV[4], ARGV[5])
redis.call('EXPIRE', KEYS[2], ARGV[2])
return 1`)

	scanScript = redis.NewScript(`
if not redis.call('SET', KEYS[1], 1, 'NX', 'EX', ARGV[1]) then return 0 end
redis.call('ZINCRBY', KEYS[2], 1, ARGV[3])
redis.call('EXPIRE', KEYS[2], ARGV[2])
return 1`)
)

func (s *Store) RecordOrderCreated(ctx context.Context, msg domain.KafkaMessage) error {
	return s.record(ctx, orderCreatedScript, "created:"+msg.OrderID, dailyKey(msg.Day(), msg.RestaurantID),
		fieldOrdersCreated)
}

// RecordOrderCompleted counts the order and adds its total to the day's
// revenue.
func (s *Store) RecordOrderCompleted(ctx context.Context, msg domain.KafkaMessage) error {
	return s.record(ctx, orderCompletedScript, "completed:"+msg.OrderID, dailyKey(msg.Day(), msg.RestaurantID),
		fieldOrdersCompleted, fieldRevenue, msg.TotalAmount.String())
}

func (s *Store) RecordScan(ctx context.Context, msg domain.KafkaMessage) error {
	member := domain.RestaurantTable
	if msg.TableNumber != nil {
		member = strconv.Itoa(*msg.TableNumber)
	}
	return s.record(ctx, scanScript, fmt.Sprintf("scan:%s:%d", msg.CodeID, msg.Timestamp.UnixNano()),
		scansKey(msg.Day(), msg.RestaurantID), member)
}

func (s *Store) DailyStats(ctx context.Context, restaurantID, date string) (*domain.DailyStats, error) {
	stats := &domain.DailyStats{
		RestaurantID: restaurantID,
		Date:         date,
		Revenue:      decimal.Zero,
		ScansByTable: map[string]int64{},
	}

	counters, err := s.rdb.HGetAll(ctx, dailyKey(date, restaurantID)).Result()
	if err != nil {
		return nil, err
	}
	stats.OrdersCreated, _ = strconv.ParseInt(counters[fieldOrdersCreated], 10, 64)
	stats.OrdersCompleted, _ = strconv.ParseInt(counters[fieldOrdersCompleted], 10, 64)
	if v := counters[fieldRevenue]; v != "" {
		revenue, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("corrupt revenue %q: %w", v, err)
		}
		stats.Revenue = revenue.Round(2)
	}

	scans, err := s.rdb.ZRevRangeWithScores(ctx, scansKey(date, restaurantID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	for _, z := range scans {
		n := int64(z.Score)
		stats.ScansByTable[fmt.Sprint(z.Member)] = n
		stats.ScansTotal += n
	}
	return stats, nil
}

// record runs script for an event not seen before; redeliveries are no-ops.
func (s *Store) record(ctx context.Context, script *redis.Script, eventID, key string, args ...any) error {
	argv := append([]any{int(seenTTL.Seconds()), int(statsTTL.Seconds())}, args...)
	if err := script.Run(ctx, s.rdb, []string{"stats:seen:" + eventID, key}, argv...).Err(); err != nil {
		return fmt.Errorf("failed to record event %s: %w", eventID, err)
	}
	return nil
}
