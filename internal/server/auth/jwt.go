// Package auth verifies caller tokens and turns them into a models.Identity.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/runavault/internal/common"
	"github.com/dmitrijs2005/runavault/internal/server/models"
)

// Claims are the token claims RunaVault reads. The group and username claim
// names follow the Cognito ID token layout.
type Claims struct {
	jwt.RegisteredClaims
	Groups          Groups `json:"cognito:groups,omitempty"`
	Email           string `json:"email,omitempty"`
	Username        string `json:"username,omitempty"`
	CognitoUsername string `json:"cognito:username,omitempty"`
}

// Groups is a group list claim. Identity providers and proxies in front of
// them encode it as a JSON array, as a string holding a JSON array, or as a
// space separated string; all three decode to the same list.
type Groups []string

func (g *Groups) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*g = cleanGroups(list)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("groups claim: %w", err)
	}
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		if err := json.Unmarshal([]byte(s), &list); err == nil {
			*g = cleanGroups(list)
			return nil
		}
		s = strings.NewReplacer("[", " ", "]", " ", ",", " ", `"`, " ").Replace(s)
	}
	*g = cleanGroups(strings.Fields(s))
	return nil
}

func cleanGroups(in []string) Groups {
	out := make(Groups, 0, len(in))
	for _, g := range in {
		g = strings.Trim(strings.TrimSpace(g), "[]")
		if g != "" {
			out = append(out, g)
		}
	}
	return out
}

// Verifier checks HS256 tokens signed with a shared secret.
type Verifier struct {
	secretKey []byte
}

func NewVerifier(secretKey []byte) *Verifier {
	return &Verifier{secretKey: secretKey}
}

// Verify parses and validates tokenString. Every failure wraps
// common.ErrorUnauthorized; an expired token additionally wraps
// common.ErrTokenExpired, anything else common.ErrInvalidToken.
func (v *Verifier) Verify(tokenString string) (models.Identity, error) {
	if tokenString == "" {
		return models.Identity{}, fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrInvalidToken)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Identity{}, fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrTokenExpired)
		}
		return models.Identity{}, fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrInvalidToken)
	}
	if !token.Valid || claims.Subject == "" {
		return models.Identity{}, fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrInvalidToken)
	}

	username := claims.Username
	if username == "" {
		username = claims.CognitoUsername
	}

	return models.Identity{
		Subject:  claims.Subject,
		Groups:   []string(claims.Groups),
		Email:    claims.Email,
		Username: username,
	}, nil
}

// GenerateToken mints a token for id. Production tokens come from the
// identity provider; this is used by development tooling and tests.
func GenerateToken(id models.Identity, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Groups:   Groups(id.Groups),
		Email:    id.Email,
		Username: id.Username,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}
