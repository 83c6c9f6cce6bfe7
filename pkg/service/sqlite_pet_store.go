// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AccelByte/extend-laundry-pet/pkg/pet"
	"github.com/AccelByte/extend-laundry-pet/pkg/stage"
	"github.com/sirupsen/logrus"

	_ "modernc.org/sqlite"
)

const petSchema = `
CREATE TABLE IF NOT EXISTS pets (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	health            INTEGER NOT NULL,
	last_care_date    TEXT,
	created_date      TEXT NOT NULL,
	cycle_length_days INTEGER NOT NULL,
	stage_a_minutes   INTEGER NOT NULL,
	stage_b_minutes   INTEGER NOT NULL,
	total_cycles      INTEGER NOT NULL DEFAULT 0,
	current_streak    INTEGER NOT NULL DEFAULT 0,
	longest_streak    INTEGER NOT NULL DEFAULT 0,
	task              TEXT,
	updated_at        TEXT NOT NULL
);`

const petColumns = `id, name, health, last_care_date, created_date, cycle_length_days,
	stage_a_minutes, stage_b_minutes, total_cycles, current_streak, longest_streak, task`

// SQLitePetStore implements pet.Store on a SQLite file. The task is stored as
// a JSON column so a pet and its task are always written together.
type SQLitePetStore struct {
	db *sql.DB
}

var _ pet.Store = (*SQLitePetStore)(nil)

// NewSQLitePetStore opens (or creates) the database at filePath.
func NewSQLitePetStore(filePath string) (*SQLitePetStore, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", filePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(petSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	logrus.Infof("opened pet store at %s", filePath)
	return &SQLitePetStore{db: db}, nil
}

// Ping checks the database is still usable.
func (s *SQLitePetStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLitePetStore) Close() error {
	return s.db.Close()
}

func (s *SQLitePetStore) Get(ctx context.Context, id string) (*pet.Pet, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+petColumns+` FROM pets WHERE id = ?`, id)

	p, err := scanPet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", pet.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get pet %s: %w", id, err)
	}
	return p, nil
}

func (s *SQLitePetStore) List(ctx context.Context) ([]*pet.Pet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+petColumns+` FROM pets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list pets: %w", err)
	}
	defer rows.Close()

	var pets []*pet.Pet
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, fmt.Errorf("list pets: %w", err)
		}
		pets = append(pets, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pets: %w", err)
	}
	return pets, nil
}

func (s *SQLitePetStore) Create(ctx context.Context, p *pet.Pet) error {
	if err := p.Validate(); err != nil {
		return err
	}
	args, err := petArgs(p)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO pets (`+petColumns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		append(args, toTS(time.Now()))...,
	)
	if err != nil {
		return fmt.Errorf("create pet %s: %w", p.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", pet.ErrAlreadyExists, p.ID)
	}
	return nil
}

func (s *SQLitePetStore) Update(ctx context.Context, p *pet.Pet) error {
	if err := p.Validate(); err != nil {
		return err
	}
	args, err := petArgs(p)
	if err != nil {
		return err
	}

	// args[0] is the id; move it to the WHERE clause.
	res, err := s.db.ExecContext(ctx, `
		UPDATE pets SET
			name = ?, health = ?, last_care_date = ?, created_date = ?, cycle_length_days = ?,
			stage_a_minutes = ?, stage_b_minutes = ?, total_cycles = ?, current_streak = ?,
			longest_streak = ?, task = ?, updated_at = ?
		WHERE id = ?`,
		append(append(args[1:], toTS(time.Now())), p.ID)...,
	)
	if err != nil {
		return fmt.Errorf("update pet %s: %w", p.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", pet.ErrNotFound, p.ID)
	}
	return nil
}

func (s *SQLitePetStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete pet %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", pet.ErrNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPet(row rowScanner) (*pet.Pet, error) {
	var (
		p           pet.Pet
		lastCare    sql.NullString
		createdDate string
		task        sql.NullString
	)
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Health,
		&lastCare,
		&createdDate,
		&p.CycleLengthDays,
		&p.StageADurationMinutes,
		&p.StageBDurationMinutes,
		&p.Stats.TotalCyclesCompleted,
		&p.Stats.CurrentStreak,
		&p.Stats.LongestStreak,
		&task,
	)
	if err != nil {
		return nil, err
	}

	if p.CreatedDate, err = fromTS(createdDate); err != nil {
		return nil, fmt.Errorf("created_date: %w", err)
	}
	if lastCare.Valid {
		t, err := fromTS(lastCare.String)
		if err != nil {
			return nil, fmt.Errorf("last_care_date: %w", err)
		}
		p.LastCareDate = &t
	}
	if task.Valid && task.String != "" {
		var t stage.Task
		if err := json.Unmarshal([]byte(task.String), &t); err != nil {
			logrus.Warnf("discarding unreadable task for pet %s: %v", p.ID, err)
		} else {
			p.Task = &t
		}
	}
	return &p, nil
}

func petArgs(p *pet.Pet) ([]any, error) {
	var lastCare, task any
	if p.LastCareDate != nil {
		lastCare = toTS(*p.LastCareDate)
	}
	if p.Task != nil {
		data, err := json.Marshal(p.Task)
		if err != nil {
			return nil, fmt.Errorf("marshal task: %w", err)
		}
		task = string(data)
	}

	return []any{
		p.ID,
		p.Name,
		p.Health,
		lastCare,
		toTS(p.CreatedDate),
		p.CycleLengthDays,
		p.StageADurationMinutes,
		p.StageBDurationMinutes,
		p.Stats.TotalCyclesCompleted,
		p.Stats.CurrentStreak,
		p.Stats.LongestStreak,
		task,
	}, nil
}

func toTS(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func fromTS(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
