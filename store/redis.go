// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/zintix-labs/luckywheel/errs"
)

// DefaultRedisPrefix 是 Redis key 的預設前綴
const DefaultRedisPrefix = "luckywheel:spin:"

const (
	fieldLast   = "last_spin_at"
	fieldStreak = "non_big_streak"
)

// Redis 以一個 hash 保存一個 identity 的狀態：
//
//	HSET luckywheel:spin:<key> last_spin_at <ms> non_big_streak <n>
//
// CompareAndSet 以 WATCH + MULTI/EXEC 實作；EXEC 失敗（key 在 WATCH 後被改動）回傳 false。
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedis 包裝既有的 client；prefix 為空時使用 DefaultRedisPrefix。
func NewRedis(rdb redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{rdb: rdb, prefix: prefix}
}

// DialRedis 建立連線並 Ping 一次確認可用。
func DialRedis(ctx context.Context, addr, password string, db int) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errs.WrapWithExtra(err, "redis ping failed", addr)
	}
	return NewRedis(rdb, ""), nil
}

type hashReader interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

func (r *Redis) Get(ctx context.Context, key string) (State, error) {
	return readHash(ctx, r.rdb, r.prefix+key)
}

func (r *Redis) CompareAndSet(ctx context.Context, key string, expected, next State) (bool, error) {
	k := r.prefix + key
	swapped := false
	err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := readHash(ctx, tx, k)
		if err != nil {
			return err
		}
		if cur != expected {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, k, fieldLast, next.LastSpinAt, fieldStreak, next.NonBigStreak)
			return nil
		})
		if err != nil {
			return err
		}
		swapped = true
		return nil
	}, k)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, errs.WrapWithExtra(err, "redis compare-and-set failed", key)
	}
	return swapped, nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

func readHash(ctx context.Context, h hashReader, k string) (State, error) {
	m, err := h.HGetAll(ctx, k).Result()
	if err != nil {
		return State{}, errs.WrapWithExtra(err, "redis read state failed", k)
	}
	if len(m) == 0 {
		return State{}, nil
	}
	last, err := strconv.ParseInt(m[fieldLast], 10, 64)
	if err != nil {
		return State{}, errs.WrapWithExtra(err, "corrupt last_spin_at", k)
	}
	streak, err := strconv.Atoi(m[fieldStreak])
	if err != nil {
		return State{}, errs.WrapWithExtra(err, "corrupt non_big_streak", k)
	}
	return State{LastSpinAt: last, NonBigStreak: streak}, nil
}
