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

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zintix-labs/luckywheel/errs"
)

// Postgres 以 spin_state 表保存狀態，CAS 以條件式 INSERT/UPDATE 完成，不需要交易。
type Postgres struct {
	pool *pgxpool.Pool
	q    stmts
}

// DialPostgres 建立連線池、Ping 並建立資料表（若不存在）。
func DialPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errs.Wrap(err, "create pg pool failed")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errs.Wrap(err, "pg ping failed")
	}
	p := NewPostgres(pool)
	if err := p.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// NewPostgres 包裝既有的連線池（呼叫端負責 Migrate）。
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, q: newStmts(sq.Dollar)}
}

func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return errs.Wrap(err, "pg migrate failed")
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, key string) (State, error) {
	sqlStr, args, err := p.q.get(key)
	if err != nil {
		return State{}, errs.Wrap(err, "build select failed")
	}
	var st State
	err = p.pool.QueryRow(ctx, sqlStr, args...).Scan(&st.LastSpinAt, &st.NonBigStreak)
	if errors.Is(err, pgx.ErrNoRows) {
		return State{}, nil
	}
	if err != nil {
		return State{}, errs.WrapWithExtra(err, "pg read state failed", key)
	}
	return st, nil
}

func (p *Postgres) CompareAndSet(ctx context.Context, key string, expected, next State) (bool, error) {
	sqlStr, args, err := p.q.cas(key, expected, next)
	if err != nil {
		return false, errs.Wrap(err, "build cas failed")
	}
	tag, err := p.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		return false, errs.WrapWithExtra(err, "pg compare-and-set failed", key)
	}
	return tag.RowsAffected() == 1, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
