package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/contract"
)

const defaultRecentLimit = 20

type Config struct {
	DSN     string        `envconfig:"DSN"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"5s"`
	Migrate bool          `envconfig:"MIGRATE" default:"true"`
}

func (c Config) Enabled() bool {
	return strings.TrimSpace(c.DSN) != ""
}

type requestRow struct {
	bun.BaseModel `bun:"table:request_history,alias:rh"`

	ID        int64     `bun:"id,pk,autoincrement"`
	RequestID string    `bun:"request_id,notnull,unique"`
	Username  string    `bun:"username"`
	Query     string    `bun:"query,notnull"`
	Tools     []string  `bun:"tools,array"`
	Status    string    `bun:"status,notnull"`
	ErrorCode int       `bun:"error_code,nullzero"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

func toRow(entry contract.HistoryEntry, now time.Time) *requestRow {
	return &requestRow{
		RequestID: entry.RequestID,
		Username:  entry.Username,
		Query:     entry.Text,
		Tools:     entry.Tools,
		Status:    string(entry.Status),
		ErrorCode: entry.ErrorCode,
		CreatedAt: now.UTC(),
	}
}

func (r *requestRow) entry() contract.HistoryEntry {
	return contract.HistoryEntry{
		RequestID: r.RequestID,
		Username:  r.Username,
		Text:      r.Query,
		Tools:     r.Tools,
		Status:    contract.ResponseStatus(r.Status),
		ErrorCode: r.ErrorCode,
	}
}

// PostgresStore appends one row per handled request.
type PostgresStore struct {
	db  *bun.DB
	now func() time.Time
}

var _ contract.HistoryStore = (*PostgresStore)(nil)

func NewPostgresStore(db *bun.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, errors.New("bun db is required")
	}
	return &PostgresStore{db: db, now: time.Now}, nil
}

// Open connects to Postgres, checks the connection and creates the table
// when cfg.Migrate is set.
func Open(ctx context.Context, cfg Config) (*PostgresStore, error) {
	if !cfg.Enabled() {
		return nil, errors.New("history dsn is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.DSN),
		pgdriver.WithTimeout(cfg.Timeout),
	))
	db := bun.NewDB(sqldb, pgdialect.New())

	store, err := NewPostgresStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := store.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}
	if cfg.Migrate {
		if err := store.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return store, nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.createTableQuery().Exec(ctx); err != nil {
		return fmt.Errorf("create request_history: %w", err)
	}
	return nil
}

func (s *PostgresStore) createTableQuery() *bun.CreateTableQuery {
	return s.db.NewCreateTable().Model((*requestRow)(nil)).IfNotExists()
}

func (s *PostgresStore) Record(ctx context.Context, entry contract.HistoryEntry) error {
	if strings.TrimSpace(entry.RequestID) == "" {
		return fmt.Errorf("%w: request id is empty", contract.ErrValidation)
	}
	if _, err := s.insertQuery(entry).Exec(ctx); err != nil {
		return fmt.Errorf("insert request_history: %w", err)
	}
	return nil
}

func (s *PostgresStore) insertQuery(entry contract.HistoryEntry) *bun.InsertQuery {
	return s.db.NewInsert().Model(toRow(entry, s.now()))
}

// Recent returns the latest entries of username, newest first.
func (s *PostgresStore) Recent(ctx context.Context, username string, limit int) ([]contract.HistoryEntry, error) {
	var rows []requestRow
	if err := s.recentQuery(&rows, username, limit).Scan(ctx); err != nil {
		return nil, fmt.Errorf("select request_history: %w", err)
	}

	out := make([]contract.HistoryEntry, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].entry())
	}
	return out, nil
}

func (s *PostgresStore) recentQuery(dest *[]requestRow, username string, limit int) *bun.SelectQuery {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	return s.db.NewSelect().
		Model(dest).
		Where("username = ?", username).
		OrderExpr("created_at DESC, id DESC").
		Limit(limit)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
