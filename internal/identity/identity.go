package identity

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/watchparty/synchub/internal/domain"
)

var (
	ErrMissingIdentity = errors.New("missing identity")
	ErrInvalidToken    = errors.New("invalid token")
)

const (
	tokenQueryKey       = "token"
	userIdQueryKey      = "user-id"
	displayNameQueryKey = "display-name"
)

type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name"`
}

// Verifier resolves the identity a client asserts when it connects. With an
// empty secret the user-id and display-name query params are trusted as is.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) FromRequest(r *http.Request) (domain.Identity, error) {
	query := r.URL.Query()

	if len(v.secret) == 0 {
		identity := domain.Identity{
			UserId:      query.Get(userIdQueryKey),
			DisplayName: query.Get(displayNameQueryKey),
		}
		if identity.UserId == "" {
			return domain.Identity{}, ErrMissingIdentity
		}
		if identity.DisplayName == "" {
			identity.DisplayName = identity.UserId
		}

		return identity, nil
	}

	token := query.Get(tokenQueryKey)
	if token == "" {
		return domain.Identity{}, ErrMissingIdentity
	}

	return v.Parse(token)
}

func (v *Verifier) Parse(tokenString string) (domain.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return domain.Identity{}, ErrInvalidToken
	}

	identity := domain.Identity{
		UserId:      claims.Subject,
		DisplayName: claims.Name,
	}
	if identity.DisplayName == "" {
		identity.DisplayName = identity.UserId
	}

	return identity, nil
}

// Issue signs a token for identity. The hub itself never issues tokens; this
// is used by tests and tooling that play the collaborator's role.
func (v *Verifier) Issue(identity domain.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserId,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name: identity.DisplayName,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
