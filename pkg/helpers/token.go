package helpers

import (
	"crypto/rand"
	"encoding/base64"
)

// KeySession is the Redis hash holding a user's login session.
func KeySession(uid string) string {
	return "user:session:" + uid
}

// KeyResetToken maps a password reset token to a user id.
func KeyResetToken(token string) string {
	return "pwd:reset:token:" + token
}

// RandomToken returns n random bytes encoded as unpadded URL-safe base64.
func RandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
