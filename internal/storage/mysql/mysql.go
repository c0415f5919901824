// Package mysql implements the storage interfaces on top of MySQL or MariaDB.
package mysql

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-sql-driver/mysql"
)

// TLS modes understood by the driver.
const (
	TLSDisabled   = "false"
	TLSVerified   = "true"
	TLSSkipVerify = "skip-verify"
	TLSPreferred  = "preferred"
)

// DSN describes how to reach the database.
type DSN struct {
	Username string
	Password string
	Addr     string
	Name     string // database name
	// TLS is one of the TLS modes. An empty value disables TLS.
	TLS string
	// CAFile is a PEM bundle used to verify the server certificate instead
	// of the system roots. It requires the verified mode.
	CAFile string
}

func (d DSN) config() (*mysql.Config, error) {
	config := mysql.NewConfig()
	config.User = d.Username
	config.Passwd = d.Password
	config.Net = "tcp"
	config.Addr = d.Addr
	config.DBName = d.Name
	config.ParseTime = true
	config.Loc = time.UTC

	switch d.TLS {
	case "", TLSDisabled:
		if d.CAFile != "" {
			return nil, errors.New("a ca file requires tls to be enabled")
		}
	case TLSSkipVerify, TLSPreferred:
		if d.CAFile != "" {
			return nil, fmt.Errorf("a ca file cannot be used with the tls mode %q", d.TLS)
		}
		config.TLSConfig = d.TLS
	case TLSVerified:
		if d.CAFile == "" {
			config.TLSConfig = d.TLS
			break
		}
		tlsConfig, err := caTLSConfig(d.CAFile)
		if err != nil {
			return nil, err
		}
		config.TLS = tlsConfig
	default:
		return nil, fmt.Errorf("unknown tls mode %q", d.TLS)
	}

	return config, nil
}

func caTLSConfig(path string) (*tls.Config, error) {
	pemCerts, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read the ca file: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pemCerts) {
		return nil, fmt.Errorf("no certificate found in the ca file %s", path)
	}

	return &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}, nil
}

// Open connects to the database described by dsn and checks it is reachable.
func Open(ctx context.Context, dsn DSN) (*sql.DB, error) {
	config, err := dsn.config()
	if err != nil {
		return nil, err
	}

	connector, err := mysql.NewConnector(config)
	if err != nil {
		return nil, fmt.Errorf("could not build the mysql connector: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not reach mysql: %w", err)
	}

	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS clients (
		id VARCHAR(255) NOT NULL PRIMARY KEY,
		hashed_secret VARCHAR(255) NOT NULL,
		service_id VARCHAR(255) NOT NULL,
		name VARCHAR(255) NOT NULL DEFAULT '',
		disabled BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS access_tokens (
		thumbprint CHAR(43) NOT NULL PRIMARY KEY,
		subject VARCHAR(255) NOT NULL,
		client_id VARCHAR(255) NOT NULL,
		grant_type VARCHAR(64) NOT NULL DEFAULT '',
		auth_methods JSON NOT NULL,
		created_at DATETIME(3) NOT NULL,
		lifetime_secs INT NOT NULL,
		expires_at DATETIME(3) NOT NULL,
		INDEX idx_access_tokens_expires_at (expires_at)
	)`,
}

// EnsureSchema creates the tables used by the managers if they don't exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("could not create the schema: %w", err)
		}
	}
	return nil
}
