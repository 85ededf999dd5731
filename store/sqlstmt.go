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
	sq "github.com/Masterminds/squirrel"
)

const (
	table     = "spin_state"
	colID     = "identity"
	colLast   = "last_spin_at"
	colStreak = "non_big_streak"
)

// schema 同時適用 Postgres 與 SQLite
const schema = `CREATE TABLE IF NOT EXISTS spin_state (
	identity       TEXT    PRIMARY KEY,
	last_spin_at   BIGINT  NOT NULL,
	non_big_streak INTEGER NOT NULL
)`

// stmts 產生 SQL 後端共用的語句，差別只在 placeholder 格式。
//
// CAS 的兩種形態：
//   - expected 為零值（從未轉過）：INSERT ... ON CONFLICT DO NOTHING，列已存在即失敗。
//   - 其他：UPDATE ... WHERE 三欄皆等於 expected，影響 0 列即失敗。
//
// 兩者都以 RowsAffected == 1 判定成功。
type stmts struct {
	sb sq.StatementBuilderType
}

func newStmts(ph sq.PlaceholderFormat) stmts {
	return stmts{sb: sq.StatementBuilder.PlaceholderFormat(ph)}
}

func (s stmts) get(key string) (string, []any, error) {
	return s.sb.Select(colLast, colStreak).
		From(table).
		Where(sq.Eq{colID: key}).
		ToSql()
}

func (s stmts) cas(key string, expected, next State) (string, []any, error) {
	if expected.IsZero() {
		return s.sb.Insert(table).
			Columns(colID, colLast, colStreak).
			Values(key, next.LastSpinAt, next.NonBigStreak).
			Suffix("ON CONFLICT (" + colID + ") DO NOTHING").
			ToSql()
	}
	return s.sb.Update(table).
		Set(colLast, next.LastSpinAt).
		Set(colStreak, next.NonBigStreak).
		Where(sq.Eq{
			colID:     key,
			colLast:   expected.LastSpinAt,
			colStreak: expected.NonBigStreak,
		}).
		ToSql()
}
