package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Projectworkpls/Observer/internal/domain"
)

// ObservationRepo records observations in a Postgres table mirroring
// the flat record shape. Used instead of the JSON store when
// DATABASE_URL is configured.
type ObservationRepo struct {
	db *sql.DB
}

func OpenObservationRepo(ctx context.Context, dsn string) (*ObservationRepo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := &ObservationRepo{db: db}
	if err := repo.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

func (r *ObservationRepo) ensureSchema(ctx context.Context) error {
	const q = `
create table if not exists observations (
	id bigserial primary key,
	username text not null default '',
	student_name text not null default '',
	student_id text not null default '',
	class_name text not null default '',
	date text not null default '',
	observations text not null default '',
	strengths jsonb not null default '[]',
	areas_of_development jsonb not null default '[]',
	recommendations jsonb not null default '[]',
	timestamp text not null default '',
	filename text not null default '',
	full_data jsonb not null default '{}'
)`
	if _, err := r.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("ensure observations table: %w", err)
	}
	return nil
}

func (r *ObservationRepo) Record(ctx context.Context, rec domain.ObservationRecord) error {
	strengths, _ := json.Marshal(rec.Strengths)
	areas, _ := json.Marshal(rec.AreasOfDevelopment)
	recommendations, _ := json.Marshal(rec.Recommendations)

	fullData := rec.FullData
	if fullData == "" {
		fullData = "{}"
	}

	const q = `
insert into observations
	(username, student_name, student_id, class_name, date, observations,
	 strengths, areas_of_development, recommendations, timestamp, filename, full_data)
values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`

	_, err := r.db.ExecContext(ctx, q,
		rec.Username, rec.StudentName, rec.StudentID, rec.ClassName, rec.Date,
		rec.Observations, strengths, areas, recommendations, rec.Timestamp,
		rec.Filename, fullData)
	if err != nil {
		return fmt.Errorf("insert observation: %w", err)
	}
	return nil
}

func (r *ObservationRepo) Close() error {
	return r.db.Close()
}
