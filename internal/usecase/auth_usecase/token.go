package auth

import (
	"time"

	"sweetshop/internal/usecase"

	"github.com/golang-jwt/jwt/v5"
)

// 署名・期限・形式のどれかが不正
var ErrInvalidToken = usecase.NewError(usecase.ErrUnauthorized, "invalid or expired token")

// トークンから取り出した中身
type TokenClaims struct {
	Subject   string
	IsAdmin   bool
	ExpiresAt time.Time
}

// JWTを発行・検証する約束
type TokenService interface {
	Issue(subject string, isAdmin bool) (token string, expiresAt time.Time, err error)
	Verify(token string) (TokenClaims, error)
}

type accessClaims struct {
	IsAdmin bool `json:"is_admin"`
	jwt.RegisteredClaims
}

// HS256のJWT。失効リストは持たず、期限切れまで有効
type JWTService struct {
	secret []byte
	ttl    time.Duration
	clock  Clock
	idGen  IDGenerator
	parser *jwt.Parser
}

func NewJWTService(secret string, ttl time.Duration, clock Clock, idGen IDGenerator) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		ttl:    ttl,
		clock:  clock,
		idGen:  idGen,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithTimeFunc(clock.Now),
			jwt.WithExpirationRequired(),
		),
	}
}

func (s *JWTService) Issue(subject string, isAdmin bool) (string, time.Time, error) {
	now := s.clock.Now()
	expiresAt := now.Add(s.ttl)

	claims := accessClaims{
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        s.idGen.NewID(),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, claims.ExpiresAt.Time, nil
}

// 期限は exp ちょうどで切れる（猶予なし）
func (s *JWTService) Verify(raw string) (TokenClaims, error) {
	var claims accessClaims
	token, err := s.parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return TokenClaims{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return TokenClaims{}, ErrInvalidToken
	}
	return TokenClaims{
		Subject:   claims.Subject,
		IsAdmin:   claims.IsAdmin,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
