// Package postgres implements the persistence collaborator: it loads norms,
// readings and assignees in consistent snapshots and stores notifications.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/compost-norm-service/internal/domain"
	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schema string

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store reads compost state from and writes notifications to Postgres.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to Postgres and verifies the connection with a ping.
func Open(ctx context.Context, dsn string, maxOpen, maxIdle int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// NewStore wraps an open database handle.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// CheckReadiness reports whether the database answers a ping.
func (s *Store) CheckReadiness(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres not ready: %w", err)
	}
	return nil
}

// LoadDispatchSnapshot returns the compost name, norms and assigned users as
// seen by a single read-only REPEATABLE READ transaction.
func (s *Store) LoadDispatchSnapshot(ctx context.Context, compostID int64) (domain.DispatchSnapshot, error) {
	var snap domain.DispatchSnapshot
	err := s.inSnapshot(ctx, func(q querier) error {
		name, err := compostName(ctx, q, compostID)
		if err != nil {
			return err
		}
		cfg, err := thresholdConfig(ctx, q, compostID)
		if err != nil {
			return err
		}
		users, err := assignedUsers(ctx, q, compostID)
		if err != nil {
			return err
		}
		snap = domain.DispatchSnapshot{CompostName: name, Config: cfg, AssignedUsers: users}
		return nil
	})
	if err != nil {
		return domain.DispatchSnapshot{}, fmt.Errorf("load dispatch snapshot for compost %d: %w", compostID, err)
	}
	return snap, nil
}

// LoadReportData returns everything a compost report needs from one snapshot.
func (s *Store) LoadReportData(ctx context.Context, compostID int64) (domain.ReportData, error) {
	var data domain.ReportData
	err := s.inSnapshot(ctx, func(q querier) error {
		name, err := compostName(ctx, q, compostID)
		if err != nil {
			return err
		}
		cfg, err := thresholdConfig(ctx, q, compostID)
		if err != nil {
			return err
		}
		readings, recorders, err := listReadings(ctx, q, compostID)
		if err != nil {
			return err
		}
		data = domain.ReportData{
			CompostID:   compostID,
			CompostName: name,
			Config:      cfg,
			Readings:    readings,
			Recorders:   recorders,
		}
		return nil
	})
	if err != nil {
		return domain.ReportData{}, fmt.Errorf("load report data for compost %d: %w", compostID, err)
	}
	return data, nil
}

// GetThresholdConfig returns the compost's norms, or nil when none are configured.
func (s *Store) GetThresholdConfig(ctx context.Context, compostID int64) (*domain.ThresholdConfig, error) {
	return thresholdConfig(ctx, s.db, compostID)
}

// ListReadings returns the compost's readings ordered by recorded_at then id.
func (s *Store) ListReadings(ctx context.Context, compostID int64) ([]domain.Reading, error) {
	readings, _, err := listReadings(ctx, s.db, compostID)
	return readings, err
}

// ListAssignedUsers returns the users currently assigned to the compost.
func (s *Store) ListAssignedUsers(ctx context.Context, compostID int64) ([]domain.User, error) {
	return assignedUsers(ctx, s.db, compostID)
}

func (s *Store) inSnapshot(ctx context.Context, fn func(q querier) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func compostName(ctx context.Context, q querier, compostID int64) (string, error) {
	var name string
	err := q.QueryRowContext(ctx, `SELECT name FROM composts WHERE id = $1`, compostID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrCompostNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query compost: %w", err)
	}
	return name, nil
}

const normsQuery = `SELECT temperature_max, humidity_max, compost_mass_max, oxygenation_min,
       wood_chips_added_max, odor_level_max
FROM norms WHERE compost_id = $1`

func thresholdConfig(ctx context.Context, q querier, compostID int64) (*domain.ThresholdConfig, error) {
	var (
		temp, humidity, mass, oxygen, chips sql.NullFloat64
		odor                                sql.NullString
	)
	err := q.QueryRowContext(ctx, normsQuery, compostID).Scan(&temp, &humidity, &mass, &oxygen, &chips, &odor)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query norms: %w", err)
	}
	return &domain.ThresholdConfig{
		CompostID:         compostID,
		TemperatureMax:    nullFloat(temp),
		HumidityMax:       nullFloat(humidity),
		CompostMassMax:    nullFloat(mass),
		OxygenationMin:    nullFloat(oxygen),
		WoodChipsAddedMax: nullFloat(chips),
		OdorLevelMax:      nullString(odor),
	}, nil
}

const readingsQuery = `SELECT d.id, d.compost_id, d.recorded_by_id, d.recorded_at,
       d.temperature, d.humidity, d.oxygenation, d.compost_mass, d.wood_chips_added,
       d.odor_level, d.turned, d.redistributed, u.first_name, u.last_name
FROM compost_data d
LEFT JOIN users u ON u.id = d.recorded_by_id
WHERE d.compost_id = $1
ORDER BY d.recorded_at, d.id`

func listReadings(ctx context.Context, q querier, compostID int64) ([]domain.Reading, map[int64]domain.User, error) {
	rows, err := q.QueryContext(ctx, readingsQuery, compostID)
	if err != nil {
		return nil, nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	readings := []domain.Reading{}
	recorders := make(map[int64]domain.User)
	for rows.Next() {
		var (
			r                                   domain.Reading
			temp, humidity, oxygen, mass, chips sql.NullFloat64
			odor, first, last                   sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.CompostID, &r.RecordedByID, &r.RecordedAt,
			&temp, &humidity, &oxygen, &mass, &chips,
			&odor, &r.Turned, &r.Redistributed, &first, &last); err != nil {
			return nil, nil, fmt.Errorf("scan reading: %w", err)
		}
		r.RecordedAt = r.RecordedAt.UTC()
		r.Temperature = nullFloat(temp)
		r.Humidity = nullFloat(humidity)
		r.Oxygenation = nullFloat(oxygen)
		r.CompostMass = nullFloat(mass)
		r.WoodChipsAdded = nullFloat(chips)
		r.OdorLevel = nullString(odor)
		readings = append(readings, r)

		if first.Valid || last.Valid {
			recorders[r.RecordedByID] = domain.User{ID: r.RecordedByID, FirstName: first.String, LastName: last.String}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate readings: %w", err)
	}
	return readings, recorders, nil
}

const assigneesQuery = `SELECT u.id, u.first_name, u.last_name
FROM compost_assignments a
JOIN users u ON u.id = a.user_id
WHERE a.compost_id = $1
ORDER BY u.id`

func assignedUsers(ctx context.Context, q querier, compostID int64) ([]domain.User, error) {
	rows, err := q.QueryContext(ctx, assigneesQuery, compostID)
	if err != nil {
		return nil, fmt.Errorf("query assignees: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName); err != nil {
			return nil, fmt.Errorf("scan assignee: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignees: %w", err)
	}
	return users, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
