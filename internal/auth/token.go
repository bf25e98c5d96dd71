package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenInvalid = errors.New("невалидный токен")
	ErrTokenExpired = errors.New("токен истёк")
)

// Claims — полезная нагрузка токена: subject и срок действия,
// никакого серверного состояния.
type Claims struct {
	jwt.RegisteredClaims
}

func (c *Claims) Subject() (uuid.UUID, error) {
	return uuid.Parse(c.RegisteredClaims.Subject)
}

// TokenService выпускает и проверяет подписанные токены.
// Алгоритм фиксирован (HS256), ключ и TTL приходят из конфига.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue кодирует subject и срок действия issued_at + ttl.
func (s *TokenService) Issue(subject uuid.UUID) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify возвращает claims либо ErrTokenExpired / ErrTokenInvalid.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// Remaining — диагностика остатка жизни токена, для авторизации не используется.
func (s *TokenService) Remaining(tokenString string) (time.Duration, error) {
	claims, err := s.Verify(tokenString)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, err
	}

	left := time.Until(claims.ExpiresAt.Time)
	if left < 0 {
		return 0, ErrTokenExpired
	}
	return left, nil
}

// ExpiresAt достаёт срок действия и из просроченного токена —
// подпись проверяется, истечение нет.
func (s *TokenService) ExpiresAt(tokenString string) (time.Time, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		return time.Time{}, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.ExpiresAt == nil {
		return time.Time{}, ErrTokenInvalid
	}
	return claims.ExpiresAt.Time, nil
}

func (s *TokenService) TTL() time.Duration {
	return s.ttl
}
