package auth

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// JWTの時刻は秒単位なので、テストの時刻も秒ちょうどにする
var baseTime = time.Unix(1_700_000_000, 0)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func newTestHasher() *BcryptPasswordHasher {
	return NewBcryptPasswordHasher(bcrypt.MinCost)
}

func newTestTokens(clock Clock) *JWTService {
	return NewJWTService("test-secret", 24*time.Hour, clock, UUIDGenerator{})
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
