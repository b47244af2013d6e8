package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type PolicyRepo struct{ DB *sql.DB }

func NewPolicyRepo(db *sql.DB) *PolicyRepo { return &PolicyRepo{DB: db} }

const schema = `
create table if not exists policy_texts (
  file_hash  text        not null,
  engine     text        not null,
  model      text        not null,
  filename   text        not null default '',
  text       text        not null,
  created_at timestamptz not null default now(),
  primary key (file_hash, engine, model)
)`

// Migrate создаёт таблицу кэша, если её ещё нет.
func (r *PolicyRepo) Migrate(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, schema)
	return err
}

// Find достаёт текст полиса по ключу (file_hash + engine + model).
// Если maxAge > 0, проверяет "свежесть", иначе игнорирует возраст.
func (r *PolicyRepo) Find(ctx context.Context, fileHash, engine, model string, maxAge time.Duration) (PolicyText, error) {
	const q = `
select file_hash, engine, model, filename, text, created_at
from policy_texts
where file_hash = $1 and engine = $2 and model = $3`
	var pt PolicyText
	err := r.DB.QueryRowContext(ctx, q, fileHash, engine, model).
		Scan(&pt.FileHash, &pt.Engine, &pt.Model, &pt.Filename, &pt.Text, &pt.CreatedAt)
	if err != nil {
		return PolicyText{}, err
	}
	if maxAge > 0 && time.Since(pt.CreatedAt) > maxAge {
		return PolicyText{}, ErrNotFound
	}
	return pt, nil
}

// Upsert сохраняет текст; существующая запись перезаписывается, возраст обнуляется.
func (r *PolicyRepo) Upsert(ctx context.Context, pt PolicyText) error {
	const q = `
insert into policy_texts (file_hash, engine, model, filename, text)
values ($1,$2,$3,$4,$5)
on conflict (file_hash, engine, model) do update
set filename = excluded.filename,
    text = excluded.text,
    created_at = now()`
	_, err := r.DB.ExecContext(ctx, q, pt.FileHash, pt.Engine, pt.Model, pt.Filename, pt.Text)
	return err
}

// PurgeOlderThan удаляет устаревшие записи, чтобы не раздувать БД.
func (r *PolicyRepo) PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("olderThan must be > 0")
	}
	cutoff := time.Now().Add(-olderThan)
	const q = `delete from policy_texts where created_at < $1`
	res, err := r.DB.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}
