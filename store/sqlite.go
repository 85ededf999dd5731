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
	"database/sql"
	"errors"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"github.com/zintix-labs/luckywheel/errs"
)

// SQLite 是單機持久化的 Store，與 Postgres 共用 schema 與 CAS 語句。
type SQLite struct {
	db *sql.DB
	q  stmts
}

// OpenSQLite 開啟（或建立）資料庫檔案並建立資料表。
//
// path 為 ":memory:" 時使用記憶體資料庫。連線數固定為 1：
// 記憶體資料庫每條連線各自獨立，且 SQLite 的寫入本來就是序列化的。
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	dsn := path
	if path != ":memory:" && !strings.Contains(path, "?") {
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errs.WrapWithExtra(err, "open sqlite failed", path)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errs.WrapWithExtra(err, "sqlite migrate failed", path)
	}
	return &SQLite{db: db, q: newStmts(sq.Question)}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) (State, error) {
	sqlStr, args, err := s.q.get(key)
	if err != nil {
		return State{}, errs.Wrap(err, "build select failed")
	}
	var st State
	err = s.db.QueryRowContext(ctx, sqlStr, args...).Scan(&st.LastSpinAt, &st.NonBigStreak)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, nil
	}
	if err != nil {
		return State{}, errs.WrapWithExtra(err, "sqlite read state failed", key)
	}
	return st, nil
}

func (s *SQLite) CompareAndSet(ctx context.Context, key string, expected, next State) (bool, error) {
	sqlStr, args, err := s.q.cas(key, expected, next)
	if err != nil {
		return false, errs.Wrap(err, "build cas failed")
	}
	res, err := s.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return false, errs.WrapWithExtra(err, "sqlite compare-and-set failed", key)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errs.Wrap(err, "sqlite rows affected failed")
	}
	return n == 1, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
