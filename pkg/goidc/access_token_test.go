package goidc_test

import (
	"testing"
	"time"

	"github.com/luikyv/go-introspect/pkg/goidc"
)

func TestAccessToken_IsExpired(t *testing.T) {
	// Given.
	createdAt := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
	token := goidc.AccessToken{
		ID:           "tok-abc123",
		CreatedAt:    createdAt,
		LifetimeSecs: 7200,
	}

	// Then.
	if token.IsExpired(createdAt.Add(time.Hour)) {
		t.Error("the token should be active one hour after creation")
	}

	if !token.IsExpired(createdAt.Add(2 * time.Hour)) {
		t.Error("the token should be expired when its lifetime elapses")
	}

	if want := createdAt.Add(2 * time.Hour); !token.ExpiresAt().Equal(want) {
		t.Errorf("ExpiresAt() = %v, want %v", token.ExpiresAt(), want)
	}
}

func TestErrorCode_StatusCode(t *testing.T) {
	testCases := []struct {
		code goidc.ErrorCode
		want int
	}{
		{goidc.ErrorCodeInvalidClient, 401},
		{goidc.ErrorCodeInvalidToken, 401},
		{goidc.ErrorCodeInternalError, 500},
		{goidc.ErrorCodeInvalidRequest, 400},
	}

	for _, testCase := range testCases {
		t.Run(string(testCase.code), func(t *testing.T) {
			if got := testCase.code.StatusCode(); got != testCase.want {
				t.Errorf("StatusCode() = %d, want %d", got, testCase.want)
			}
		})
	}
}
