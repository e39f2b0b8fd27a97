package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	appErrors "github.com/fatali-fataliyev/intelliwealth/customErrors"
	"github.com/fatali-fataliyev/intelliwealth/internal/auth"
	"github.com/fatali-fataliyev/intelliwealth/internal/contextutil"
	"github.com/fatali-fataliyev/intelliwealth/logging"
	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

var (
	pingAttempts = 15
	pingInterval = 3 * time.Second
)

// --- INIT START --- //

func mysqlConfig(dsn string) (*mysql.Config, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	// Renewing a session twice within one second changes no row, but it still matched.
	cfg.ClientFoundRows = true
	return cfg, nil
}

// InitMySQL connects to the server, creates the database named in dsn when missing and
// runs the session migrations.
func InitMySQL(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := mysqlConfig(dsn)
	if err != nil {
		return nil, err
	}
	dbname := cfg.DBName
	if dbname == "" {
		dbname = "intelliwealth"
	}

	adminCfg := cfg.Clone()
	adminCfg.DBName = ""

	logging.Logger.Info("Connecting to MySQL server for initialization...")
	adminDb, err := sql.Open(DialectMySQL, adminCfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open admin mysql handle: %v", err)
	}
	defer adminDb.Close()

	if err := waitForDB(ctx, adminDb); err != nil {
		return nil, err
	}

	var dbnameExistence string
	checkDbnameExistQuery := "SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?"
	err = adminDb.QueryRowContext(ctx, checkDbnameExistQuery, dbname).Scan(&dbnameExistence)
	if err == sql.ErrNoRows {
		logging.Logger.Infof("Database '%s' does not exist, creating...", dbname)
		createDbSql := fmt.Sprintf("CREATE DATABASE `%s` CHARACTER SET utf8mb4 COLLATE utf8mb4_general_ci;", dbname)
		if _, err := adminDb.ExecContext(ctx, createDbSql); err != nil {
			return nil, fmt.Errorf("failed to create database: %v", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to check database existence: %v", err)
	}

	cfg.DBName = dbname
	logging.Logger.Info("Connecting to database...")
	db, err := sql.Open(DialectMySQL, cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database handle: %v", err)
	}
	if err := waitForDB(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	logging.Logger.Info("Connected to database successfully")
	logging.Logger.Info("Running migrations...")
	if err := runMigrations(db, DialectMySQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}
	return db, nil
}

// InitSQLite opens (or creates) the database file at path and runs the session migrations.
// ":memory:" gives a private in-memory database.
func InitSQLite(ctx context.Context, path string) (*sql.DB, error) {
	dsn := "file:" + path + "?_busy_timeout=5000&_foreign_keys=on"
	if path == ":memory:" {
		dsn = "file::memory:?_busy_timeout=5000"
	}
	db, err := sql.Open(DialectSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %v", err)
	}
	// A second connection to :memory: would see an empty database.
	db.SetMaxOpenConns(1)

	if err := waitForDB(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	if err := runMigrations(db, DialectSQLite); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}
	return db, nil
}

func waitForDB(ctx context.Context, db *sql.DB) error {
	for i := 0; i < pingAttempts; i++ {
		if err := db.PingContext(ctx); err == nil {
			return nil
		}
		logging.Logger.Warnf("Database not ready, retrying... (%d/%d)", i+1, pingAttempts)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pingInterval):
		}
	}
	return fmt.Errorf("database unreachable after multiple attempts")
}

// --- INIT END --- //

type SQLStorage struct {
	db      *sql.DB
	dialect string
	sealer  *Sealer
}

func NewSQLStorage(db *sql.DB, dialect string, sealer *Sealer) *SQLStorage {
	return &SQLStorage{db: db, dialect: dialect, sealer: sealer}
}

func (s *SQLStorage) GetStorageType() string {
	if s.dialect == DialectSQLite {
		return "sqlite"
	}
	return "mysql"
}

func (s *SQLStorage) Close() error {
	return s.db.Close()
}

func (s *SQLStorage) SaveSession(ctx context.Context, session auth.Session) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	sealed, err := s.sealer.Seal(session.UpstreamToken)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to seal upstream token in Storage.SaveSession() function | Error: %v", traceID, err)
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Login failed, try again later.",
		}
	}

	query := "INSERT INTO session (id, token, upstream_token, login, display_name, created_at, expire_at) VALUES (?, ?, ?, ?, ?, ?, ?);"
	_, err = s.db.ExecContext(ctx, query, session.ID, session.Token, sealed, session.Login, session.DisplayName, session.CreatedAt.UTC(), session.ExpireAt.UTC())
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to save session in Storage.SaveSession() function | Error: %v", traceID, err)
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Login failed, try again later.",
		}
	}
	return nil
}

func (s *SQLStorage) UpdateSession(ctx context.Context, sessionID string, newExpireDate time.Time) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "UPDATE session SET expire_at = ? WHERE id = ?;"
	result, err := s.db.ExecContext(ctx, query, newExpireDate.UTC(), sessionID)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to update session in Storage.UpdateSession() function | Error: %v", traceID, err)
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to renew session, try again later.",
		}
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to check affected rows in Storage.UpdateSession() function | Error: %v", traceID, err)
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to renew session, try again later.",
		}
	}
	if rowsAffected == 0 {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrAuth,
			Message: auth.MsgSessionNotFound,
		}
	}
	return nil
}

func (s *SQLStorage) GetSessionByToken(ctx context.Context, token string) (auth.Session, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	var dbS dbSession
	query := "SELECT id, token, upstream_token, login, display_name, created_at, expire_at FROM session WHERE token = ?;"
	err := s.db.QueryRowContext(ctx, query, token).Scan(&dbS.ID, &dbS.Token, &dbS.UpstreamToken, &dbS.Login, &dbS.DisplayName, &dbS.CreatedAt, &dbS.ExpireAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.Session{}, appErrors.ErrorResponse{
				Code:    appErrors.ErrAuth,
				Message: auth.MsgSessionNotFound,
			}
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to get session in Storage.GetSessionByToken() function | Error: %v", traceID, err)
		return auth.Session{}, fmt.Errorf("failed to query session: %w", err)
	}

	upstreamToken, err := s.sealer.Open(dbS.UpstreamToken)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to open upstream token in Storage.GetSessionByToken() function | Error: %v", traceID, err)
		return auth.Session{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrAuth,
			Message: auth.MsgSessionNotFound,
		}
	}
	return dbS.toSession(upstreamToken), nil
}

func (s *SQLStorage) DeleteSession(ctx context.Context, token string) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	if _, err := s.db.ExecContext(ctx, "DELETE FROM session WHERE token = ?;", token); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to delete session in Storage.DeleteSession() function | Error: %v", traceID, err)
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Logout failed, try again later.",
		}
	}
	return nil
}

// PurgeExpired removes sessions that expired before now and returns them without their
// upstream tokens.
func (s *SQLStorage) PurgeExpired(ctx context.Context, now time.Time) ([]auth.Session, error) {
	query := "SELECT id, token, login, display_name, created_at, expire_at FROM session WHERE expire_at <= ?;"
	rows, err := s.db.QueryContext(ctx, query, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list expired sessions: %w", err)
	}
	var expired []dbSession
	for rows.Next() {
		var dbS dbSession
		if err := rows.Scan(&dbS.ID, &dbS.Token, &dbS.Login, &dbS.DisplayName, &dbS.CreatedAt, &dbS.ExpireAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expired session: %w", err)
		}
		expired = append(expired, dbS)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("failed to close expired sessions: %w", err)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list expired sessions: %w", err)
	}

	// A session renewed after the select no longer matches the delete and is kept.
	var purged []auth.Session
	for _, dbS := range expired {
		result, err := s.db.ExecContext(ctx, "DELETE FROM session WHERE token = ? AND expire_at <= ?;", dbS.Token, now.UTC())
		if err != nil {
			return purged, fmt.Errorf("failed to purge expired session: %w", err)
		}
		if n, err := result.RowsAffected(); err == nil && n > 0 {
			purged = append(purged, dbS.toSession(""))
		}
	}
	return purged, nil
}
