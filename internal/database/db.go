package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"dbfixture/internal/config"
	"dbfixture/internal/repositories"
)

// Open connects to the configured store.
func Open(ctx context.Context, cfg config.DatabaseConfig) (repositories.Store, error) {
	dsn, err := cfg.GetConnectionString()
	if err != nil {
		return nil, err
	}

	switch cfg.DBType {
	case "postgres":
		if cfg.CreateIfMissing {
			if err := EnsureDatabaseExists(ctx, dsn); err != nil {
				return nil, err
			}
		}
		pool, err := Connect(ctx, dsn, cfg.MaxConns, cfg.MinConns)
		if err != nil {
			return nil, err
		}
		return repositories.NewPostgresRepository(pool), nil

	case "mysql":
		repo, err := repositories.OpenMySQL(ctx, dsn)
		if err != nil {
			return nil, err
		}
		log.Info("MySQL connection established")
		return repo, nil

	case "sqlite":
		repo, err := repositories.OpenSQLite(ctx, dsn)
		if err != nil {
			return nil, err
		}
		log.WithField("file", dsn).Info("SQLite database opened")
		return repo, nil
	}
	return nil, errors.Errorf("unsupported database type: %s", cfg.DBType)
}

// EnsureDatabaseExists creates the database named in dsn when the server
// does not have it yet. It connects to the postgres maintenance database
// with the same credentials.
func EnsureDatabaseExists(ctx context.Context, dsn string) error {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return errors.Wrap(err, "failed to parse connection string")
	}
	database := config.ConnConfig.Database
	if database == "" {
		return errors.New("connection string names no database")
	}
	config.ConnConfig.Database = "postgres"
	config.MaxConns = 1

	log.Infof("Checking if database '%s' exists...", database)

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return errors.Wrap(err, "failed to connect to PostgreSQL")
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)"
	if err := pool.QueryRow(ctx, query, database).Scan(&exists); err != nil {
		return errors.Wrap(err, "failed to check if database exists")
	}

	if exists {
		log.Infof("Database '%s' already exists", database)
		return nil
	}

	log.Infof("Database '%s' does not exist. Creating it...", database)
	// CREATE DATABASE cannot run inside a transaction
	createQuery := fmt.Sprintf("CREATE DATABASE %s", pgx.Identifier{database}.Sanitize())
	if _, err := pool.Exec(ctx, createQuery); err != nil {
		return errors.Wrap(err, "failed to create database")
	}
	log.Infof("Database '%s' created successfully", database)
	return nil
}

// Connect opens a pgx pool on dsn and checks it with a ping. Zero pool sizes
// keep the pgx defaults.
func Connect(ctx context.Context, dsn string, maxConns, minConns int32) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse connection string (check your config or .env file)")
	}

	if maxConns > 0 {
		config.MaxConns = maxConns
	}
	if minConns > 0 {
		config.MinConns = minConns
	}
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	log.Infof("Connecting to database: postgres://%s:***@%s:%d/%s",
		config.ConnConfig.User, config.ConnConfig.Host, config.ConnConfig.Port, config.ConnConfig.Database)

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create connection pool")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	log.Info("Database connection pool established successfully")
	return pool, nil
}
