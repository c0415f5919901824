package bolt

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/luikyv/go-introspect/internal/hashutil"
	"github.com/luikyv/go-introspect/pkg/goidc"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

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

func TestAccessTokenManager_ValueIsNotStored(t *testing.T) {
	// Given.
	db := setUp(t)
	manager := NewAccessTokenManager(db)
	token := &goidc.AccessToken{
		ID:           "tok-abc123",
		CreatedAt:    time.Now(),
		LifetimeSecs: 60,
	}

	// When.
	require.NoError(t, manager.Save(context.Background(), token))

	// Then.
	err := db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(accessTokensBucket)).ForEach(func(k, v []byte) error {
			if string(k) != hashutil.Thumbprint("tok-abc123") {
				t.Errorf("key = %s, want the token thumbprint", k)
			}
			if strings.Contains(string(v), "tok-abc123") {
				t.Errorf("record %s contains the token value", v)
			}
			return nil
		})
	})
	require.NoError(t, err)
}

func TestAccessTokenManager_Expired(t *testing.T) {
	// Given.
	db := setUp(t)
	manager := NewAccessTokenManager(db)
	now := time.Now()
	manager.Now = func() time.Time { return now }
	token := &goidc.AccessToken{
		ID:           "tok-expired",
		CreatedAt:    now.Add(-2 * time.Hour),
		LifetimeSecs: 3600,
	}
	require.NoError(t, manager.Save(context.Background(), token))

	// When.
	_, err := manager.AccessToken(context.Background(), "tok-expired")

	// Then.
	if !errors.Is(err, goidc.ErrNotFound) {
		t.Errorf("err = %v, want %v", err, goidc.ErrNotFound)
	}

	_ = db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(accessTokensBucket)).Stats().KeyN != 0 {
			t.Error("the expired token was not removed")
		}
		return nil
	})
}

func TestAccessTokenManager_ExpiresAtTheBoundary(t *testing.T) {
	// Given.
	manager := NewAccessTokenManager(setUp(t))
	createdAt := time.Now().UTC()
	manager.Now = func() time.Time { return createdAt.Add(time.Hour) }
	token := &goidc.AccessToken{
		ID:           "tok-boundary",
		CreatedAt:    createdAt,
		LifetimeSecs: 3600,
	}
	require.NoError(t, manager.Save(context.Background(), token))

	// When.
	_, err := manager.AccessToken(context.Background(), "tok-boundary")

	// Then.
	if !errors.Is(err, goidc.ErrNotFound) {
		t.Errorf("err = %v, want %v", err, goidc.ErrNotFound)
	}
}

func TestAccessTokenManager_Delete(t *testing.T) {
	// Given.
	manager := NewAccessTokenManager(setUp(t))
	token := &goidc.AccessToken{
		ID:           "tok-abc123",
		CreatedAt:    time.Now(),
		LifetimeSecs: 60,
	}
	require.NoError(t, manager.Save(context.Background(), token))

	// When.
	err := manager.Delete(context.Background(), "tok-abc123")

	// Then.
	require.NoError(t, err)
	if _, err := manager.AccessToken(context.Background(), "tok-abc123"); !errors.Is(err, goidc.ErrNotFound) {
		t.Errorf("err = %v, want %v", err, goidc.ErrNotFound)
	}
}

func setUp(t *testing.T) *bbolt.DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "introspect.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}
