package security

import (
	"bitwise74/rating-api/internal/model"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"time"
)

const codePurpose = "confirmation-code"

// ConfirmationCodes issues codes that are never stored. A code is an HMAC of
// the user's current state and a time bucket, so it stops verifying once the
// user changes or the bucket moves on twice.
type ConfirmationCodes struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewConfirmationCodes(secret string, ttl time.Duration) (*ConfirmationCodes, error) {
	if ttl < time.Second {
		return nil, errors.New("code ttl must be at least a second")
	}

	key, err := DeriveKey(secret, codePurpose)
	if err != nil {
		return nil, err
	}

	return &ConfirmationCodes{key: key, ttl: ttl, now: time.Now}, nil
}

func (c *ConfirmationCodes) Issue(u *model.User) string {
	return c.code(u, c.bucket())
}

// Verify accepts codes from the current and the previous bucket.
func (c *ConfirmationCodes) Verify(u *model.User, code string) bool {
	if code == "" {
		return false
	}

	b := c.bucket()
	for _, bucket := range []int64{b, b - 1} {
		if hmac.Equal([]byte(c.code(u, bucket)), []byte(code)) {
			return true
		}
	}

	return false
}

func (c *ConfirmationCodes) bucket() int64 {
	return c.now().Unix() / int64(c.ttl/time.Second)
}

func (c *ConfirmationCodes) code(u *model.User, bucket int64) string {
	mac := hmac.New(sha256.New, c.key)

	write := func(s string) {
		var n [4]byte
		binary.BigEndian.PutUint32(n[:], uint32(len(s)))
		mac.Write(n[:])
		mac.Write([]byte(s))
	}

	write(u.ID)
	write(u.Email)
	write(u.Username)
	write(string(u.Role))
	write(u.Stamp)

	var lastLogin int64
	if u.LastLoginAt != nil {
		lastLogin = u.LastLoginAt.UnixNano()
	}

	var tail [16]byte
	binary.BigEndian.PutUint64(tail[:8], uint64(lastLogin))
	binary.BigEndian.PutUint64(tail[8:], uint64(bucket))
	mac.Write(tail[:])

	return hex.EncodeToString(mac.Sum(nil)[:16])
}
