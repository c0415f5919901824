package mysql

import (
	"context"
	"database/sql"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/go-cmp/cmp"
	"github.com/luikyv/go-introspect/pkg/goidc"
	"github.com/stretchr/testify/require"
)

func TestDSNConfig(t *testing.T) {
	// Given.
	dsn := DSN{
		Username: "introspect",
		Password: "secret",
		Addr:     "localhost:3306",
		Name:     "introspect",
	}

	// When.
	config, err := dsn.config()

	// Then.
	require.NoError(t, err)
	want := "introspect:secret@tcp(localhost:3306)/introspect?parseTime=true"
	if got := config.FormatDSN(); got != want {
		t.Errorf("FormatDSN() = %s, want %s", got, want)
	}
	if config.TLS != nil {
		t.Errorf("TLS = %v, want nil", config.TLS)
	}
}

func TestDSNConfig_TLSMode(t *testing.T) {
	for _, mode := range []string{TLSVerified, TLSSkipVerify, TLSPreferred} {
		t.Run(mode, func(t *testing.T) {
			// Given.
			dsn := DSN{Addr: "db.example.com:3306", Name: "introspect", TLS: mode}

			// When.
			config, err := dsn.config()

			// Then.
			require.NoError(t, err)
			if config.TLSConfig != mode {
				t.Errorf("TLSConfig = %s, want %s", config.TLSConfig, mode)
			}
			if !strings.Contains(config.FormatDSN(), "tls="+mode) {
				t.Errorf("FormatDSN() = %s, want the tls=%s parameter", config.FormatDSN(), mode)
			}
		})
	}
}

func TestDSNConfig_CAFile(t *testing.T) {
	// Given.
	server := httptest.NewTLSServer(http.NotFoundHandler())
	defer server.Close()

	caFile := filepath.Join(t.TempDir(), "ca.pem")
	caPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: server.Certificate().Raw})
	require.NoError(t, os.WriteFile(caFile, caPEM, 0o600))

	dsn := DSN{Addr: "db.example.com:3306", Name: "introspect", TLS: TLSVerified, CAFile: caFile}

	// When.
	config, err := dsn.config()

	// Then.
	require.NoError(t, err)
	if config.TLS == nil {
		t.Fatal("TLS = nil, want a tls config trusting the ca file")
	}
	if config.TLS.RootCAs == nil {
		t.Error("RootCAs = nil, want the ca file pool")
	}
	if config.TLS.InsecureSkipVerify {
		t.Error("InsecureSkipVerify = true, want false")
	}
}

func TestDSNConfig_InvalidTLS(t *testing.T) {
	emptyFile := filepath.Join(t.TempDir(), "empty.pem")
	require.NoError(t, os.WriteFile(emptyFile, []byte("not a certificate"), 0o600))

	testCases := []struct {
		name string
		dsn  DSN
	}{
		{"unknown mode", DSN{TLS: "always"}},
		{"ca file without tls", DSN{CAFile: emptyFile}},
		{"ca file with skip verify", DSN{TLS: TLSSkipVerify, CAFile: emptyFile}},
		{"missing ca file", DSN{TLS: TLSVerified, CAFile: filepath.Join(t.TempDir(), "missing.pem")}},
		{"ca file without certificates", DSN{TLS: TLSVerified, CAFile: emptyFile}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			// When.
			_, err := testCase.dsn.config()

			// Then.
			if err == nil {
				t.Error("an error was expected")
			}
		})
	}
}

func TestClientManager(t *testing.T) {
	// Given.
	manager := NewClientManager(setUp(t))
	client := &goidc.Client{
		ID:           "svc1",
		HashedSecret: "hash",
		ServiceID:    "https://svc1.example.com",
	}

	// When.
	err := manager.Save(context.Background(), client)

	// Then.
	require.NoError(t, err)

	got, err := manager.Client(context.Background(), "svc1")
	require.NoError(t, err)
	if diff := cmp.Diff(client, got); diff != "" {
		t.Error(diff)
	}

	client.Disabled = true
	require.NoError(t, manager.Save(context.Background(), client))
	got, err = manager.Client(context.Background(), "svc1")
	require.NoError(t, err)
	if !got.Disabled {
		t.Error("the client update was not persisted")
	}

	require.NoError(t, manager.Delete(context.Background(), "svc1"))
	if _, err := manager.Client(context.Background(), "svc1"); !errors.Is(err, goidc.ErrNotFound) {
		t.Errorf("err = %v, want %v", err, goidc.ErrNotFound)
	}
}

func TestAccessTokenManager(t *testing.T) {
	// Given.
	manager := NewAccessTokenManager(setUp(t))
	token := &goidc.AccessToken{
		ID:           "tok-abc123",
		Subject:      "alice",
		ClientID:     "svc1",
		GrantType:    "authorization_code",
		AuthMethods:  []string{"password", "otp"},
		CreatedAt:    time.Now().Add(-time.Minute).UTC().Truncate(time.Millisecond),
		LifetimeSecs: 7200,
	}

	// When.
	err := manager.Save(context.Background(), token)

	// Then.
	require.NoError(t, err)

	got, err := manager.AccessToken(context.Background(), "tok-abc123")
	require.NoError(t, err)
	if diff := cmp.Diff(token, got); diff != "" {
		t.Error(diff)
	}
}

func TestAccessTokenManager_Expired(t *testing.T) {
	// Given.
	manager := NewAccessTokenManager(setUp(t))
	token := &goidc.AccessToken{
		ID:           "tok-expired",
		CreatedAt:    time.Now().Add(-2 * time.Hour),
		LifetimeSecs: 3600,
	}
	require.NoError(t, manager.Save(context.Background(), token))

	// When.
	_, err := manager.AccessToken(context.Background(), "tok-expired")

	// Then.
	if !errors.Is(err, goidc.ErrNotFound) {
		t.Errorf("err = %v, want %v", err, goidc.ErrNotFound)
	}

	n, err := manager.DeleteExpired(context.Background())
	require.NoError(t, err)
	if n != 1 {
		t.Errorf("DeleteExpired() = %d, want 1", n)
	}
}

// setUp connects to the database informed by INTROSPECT_TEST_MYSQL_DSN and
// empties the tables when the test ends.
func setUp(t *testing.T) *sql.DB {
	t.Helper()

	raw := os.Getenv("INTROSPECT_TEST_MYSQL_DSN")
	if raw == "" {
		t.Skip("INTROSPECT_TEST_MYSQL_DSN is not set")
	}

	parsed, err := mysql.ParseDSN(raw)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := Open(ctx, DSN{
		Username: parsed.User,
		Password: parsed.Passwd,
		Addr:     parsed.Addr,
		Name:     parsed.DBName,
	})
	require.NoError(t, err)
	require.NoError(t, EnsureSchema(ctx, db))

	t.Cleanup(func() {
		_, _ = db.Exec("DELETE FROM access_tokens")
		_, _ = db.Exec("DELETE FROM clients")
		_ = db.Close()
	})
	return db
}
