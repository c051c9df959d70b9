// Package jwt подписывает и проверяет токены сессий.
//
// Токен хранит идентификатор сессии (jti) и данные пользователя; сама сессия
// живёт в Redis, поэтому выход из системы отзывает токен до истечения срока.
package jwt

import (
	"time"
)

// Maker описывает интерфейс для генерации и парсинга токенов.
type Maker interface {
	GenerateToken(sessionID string, userID int64, username, role string) (string, error)
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl подписывает токены HS256 секретным ключом.
type MakerImpl struct {
	secretKey string        // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration // Время жизни токена.
}

// NewJWTMaker создаёт MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}

// TTL возвращает срок жизни выдаваемых токенов.
func (j *MakerImpl) TTL() time.Duration {
	return j.tokenTTL
}
