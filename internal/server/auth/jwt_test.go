package auth

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-cmp/cmp"

	"github.com/dmitrijs2005/runavault/internal/common"
	"github.com/dmitrijs2005/runavault/internal/server/models"
)

func TestGenerateAndVerify_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	want := models.Identity{
		Subject:  "user-123",
		Groups:   []string{"eng", "ops"},
		Email:    "a@example.com",
		Username: "alice",
	}

	tok, err := GenerateToken(want, secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	got, err := NewVerifier(secret).Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("identity mismatch (-want +got):\n%s", diff)
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, err := GenerateToken(models.Identity{Subject: "u1"}, secret, -1*time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = NewVerifier(secret).Verify(tok)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("expected common.ErrorUnauthorized, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken(models.Identity{Subject: "u2"}, []byte("right-secret"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = NewVerifier([]byte("wrong-secret")).Verify(tok)
	if !errors.Is(err, common.ErrorUnauthorized) || !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected unauthorized invalid token, got %v", err)
	}
}

func TestVerify_MalformedAndEmpty(t *testing.T) {
	t.Parallel()

	v := NewVerifier([]byte("k"))
	for _, tok := range []string{"", "not.a.jwt"} {
		if _, err := v.Verify(tok); !errors.Is(err, common.ErrorUnauthorized) {
			t.Fatalf("token %q: expected ErrorUnauthorized, got %v", tok, err)
		}
	}
}

func TestVerify_MissingSubject(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	tok, err := GenerateToken(models.Identity{}, secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	if _, err := NewVerifier(secret).Verify(tok); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(secret)
	if err != nil {
		t.Fatalf("SignedString error: %v", err)
	}
	if _, err := NewVerifier(secret).Verify(tok); !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("expected ErrorUnauthorized, got %v", err)
	}
}

func TestVerify_CognitoUsernameFallback(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		CognitoUsername: "bob",
	}).SignedString(secret)
	if err != nil {
		t.Fatalf("SignedString error: %v", err)
	}

	id, err := NewVerifier(secret).Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if id.Username != "bob" {
		t.Fatalf("username: got %q want %q", id.Username, "bob")
	}
}

func TestGroups_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want Groups
	}{
		{"array", `["eng","ops"]`, Groups{"eng", "ops"}},
		{"json array in string", `"[\"eng\",\"ops\"]"`, Groups{"eng", "ops"}},
		{"bracketed words", `"[eng ops]"`, Groups{"eng", "ops"}},
		{"space separated", `"eng  ops"`, Groups{"eng", "ops"}},
		{"single", `"eng"`, Groups{"eng"}},
		{"empty string", `""`, Groups{}},
		{"empty entries dropped", `["", "[eng]"]`, Groups{"eng"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var g Groups
			if err := json.Unmarshal([]byte(tt.in), &g); err != nil {
				t.Fatalf("unmarshal error: %v", err)
			}
			if diff := cmp.Diff(tt.want, g); diff != "" {
				t.Fatalf("groups mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGroups_UnmarshalJSON_Invalid(t *testing.T) {
	t.Parallel()

	var g Groups
	if err := json.Unmarshal([]byte(`42`), &g); err == nil {
		t.Fatal("expected error for numeric claim")
	}
}
