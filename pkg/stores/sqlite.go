package stores

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"

	// SQLite driver
	_ "modernc.org/sqlite"

	"github.com/deckhand-io/deckhand/pkg/engine"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteArchive is the durable record archive. It implements
// engine.RecordStore so the provisioning machines can be pointed at it
// directly, or at a DocumentStore that is flushed into it.
type SQLiteArchive struct {
	db   *sql.DB
	path string
}

// SQLiteConfig holds archive configuration.
type SQLiteConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteArchive creates a new archive instance. Call Init and Migrate
// before use.
func NewSQLiteArchive(cfg SQLiteConfig) (*SQLiteArchive, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	return &SQLiteArchive{path: cfg.Path}, nil
}

// Init opens the database connection and enables WAL mode.
func (s *SQLiteArchive) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection.
func (s *SQLiteArchive) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs the embedded schema migrations.
func (s *SQLiteArchive) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// HealthCheck verifies the database connection is alive.
func (s *SQLiteArchive) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return s.db.PingContext(ctx)
}

// --- engine.RecordStore ---

// SaveRecord inserts or replaces a provisioning record.
func (s *SQLiteArchive) SaveRecord(ctx context.Context, record *engine.ProvisioningRecord) error {
	if record.ID == "" {
		return engine.NewPermanentError("provisioning record requires an ID", nil).
			WithCode(engine.ErrCodeValidation)
	}
	spec, err := marshalSpec(record.Spec)
	if err != nil {
		return err
	}
	validated, err := marshalSpec(record.ValidatedSpec)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO provisioning_records (
			id, org_id, dock_id, provider, kind, spec, validated_spec,
			provisioning_id, resource_id, status, progress, message, error,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			spec = excluded.spec,
			validated_spec = excluded.validated_spec,
			provisioning_id = excluded.provisioning_id,
			resource_id = excluded.resource_id,
			status = excluded.status,
			progress = excluded.progress,
			message = excluded.message,
			error = excluded.error,
			updated_at = excluded.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		record.ID,
		record.OrgID,
		record.DockID,
		record.Provider,
		string(record.Kind),
		spec,
		validated,
		record.ProvisioningID,
		record.ResourceID,
		string(record.Status),
		record.Progress,
		record.Message,
		record.Error,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save provisioning record: %w", err)
	}
	return nil
}

// GetRecord retrieves a provisioning record by ID.
func (s *SQLiteArchive) GetRecord(ctx context.Context, recordID string) (*engine.ProvisioningRecord, error) {
	query := `
		SELECT id, org_id, dock_id, provider, kind, spec, validated_spec,
			provisioning_id, resource_id, status, progress, message, error,
			created_at, updated_at
		FROM provisioning_records
		WHERE id = ?
	`

	record, err := scanRecord(s.db.QueryRowContext(ctx, query, recordID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, engine.NewPermanentError("provisioning record not found: "+recordID, nil).
			WithCode(engine.ErrCodeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get provisioning record: %w", err)
	}
	return record, nil
}

// ListRecords lists an organization's records, newest first.
func (s *SQLiteArchive) ListRecords(ctx context.Context, orgID string) ([]engine.ProvisioningRecord, error) {
	query := `
		SELECT id, org_id, dock_id, provider, kind, spec, validated_spec,
			provisioning_id, resource_id, status, progress, message, error,
			created_at, updated_at
		FROM provisioning_records
		WHERE org_id = ?
		ORDER BY updated_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list provisioning records: %w", err)
	}
	defer rows.Close()

	records := []engine.ProvisioningRecord{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan provisioning record: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating provisioning records: %w", err)
	}
	return records, nil
}

// AppendEvent appends an event to a record's audit trail.
func (s *SQLiteArchive) AppendEvent(ctx context.Context, event *engine.Event) error {
	if event.RecordID == "" {
		return engine.NewPermanentError("audit event requires a record ID", nil).
			WithCode(engine.ErrCodeValidation)
	}
	id := event.ID
	if id == "" {
		id = uuid.New().String()
	}
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	var details any
	if event.Details != nil {
		data, err := json.Marshal(event.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal event details: %w", err)
		}
		details = string(data)
	}

	query := `
		INSERT INTO events (id, record_id, type, level, message, details, timestamp, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM events WHERE record_id = ?))
	`

	_, err := s.db.ExecContext(ctx, query,
		id,
		event.RecordID,
		event.Type,
		string(event.Level),
		event.Message,
		details,
		ts,
		event.RecordID,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit event: %w", err)
	}
	event.ID = id
	return nil
}

// GetEvents retrieves a record's audit trail, oldest first.
func (s *SQLiteArchive) GetEvents(ctx context.Context, recordID string) ([]engine.Event, error) {
	query := `
		SELECT id, record_id, type, level, message, details, timestamp
		FROM events
		WHERE record_id = ?
		ORDER BY seq ASC
	`

	rows, err := s.db.QueryContext(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit events: %w", err)
	}
	defer rows.Close()

	events := []engine.Event{}
	for rows.Next() {
		var (
			event   engine.Event
			level   string
			details sql.NullString
		)
		err := rows.Scan(
			&event.ID,
			&event.RecordID,
			&event.Type,
			&level,
			&event.Message,
			&details,
			&event.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		event.Level = engine.EventLevel(level)
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &event.Details); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event details: %w", err)
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit events: %w", err)
	}
	return events, nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*engine.ProvisioningRecord, error) {
	var (
		record     engine.ProvisioningRecord
		kind       string
		status     string
		spec       sql.NullString
		validated  sql.NullString
		resourceID sql.NullString
		message    sql.NullString
		errMsg     sql.NullString
	)
	err := row.Scan(
		&record.ID,
		&record.OrgID,
		&record.DockID,
		&record.Provider,
		&kind,
		&spec,
		&validated,
		&record.ProvisioningID,
		&resourceID,
		&status,
		&record.Progress,
		&message,
		&errMsg,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Kind = engine.ResourceKind(kind)
	record.Status = engine.ProvisionStatus(status)
	record.ResourceID = resourceID.String
	record.Message = message.String
	record.Error = errMsg.String

	record.Spec, err = unmarshalSpec(spec)
	if err != nil {
		return nil, err
	}
	record.ValidatedSpec, err = unmarshalSpec(validated)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func marshalSpec(spec engine.Spec) (any, error) {
	if spec == nil {
		return nil, nil
	}
	data, err := json.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal spec: %w", err)
	}
	return string(data), nil
}

func unmarshalSpec(col sql.NullString) (engine.Spec, error) {
	if !col.Valid || col.String == "" {
		return nil, nil
	}
	var spec engine.Spec
	if err := json.Unmarshal([]byte(col.String), &spec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal spec: %w", err)
	}
	return spec, nil
}
