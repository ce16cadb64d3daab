package session

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const refreshTokenBytes = 32

// record is the JSON value stored per access id. Only a digest of the refresh
// token is kept so a leaked redis snapshot cannot mint new sessions.
type record struct {
	UserID      uuid.UUID `json:"uid"`
	RefreshHash string    `json:"rth"`
	IssuedAt    int64     `json:"iat"`
}

func newRecord(userID uuid.UUID, refreshToken string, now time.Time) record {
	return record{UserID: userID, RefreshHash: digest(refreshToken), IssuedAt: now.Unix()}
}

func (r record) encode() (string, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encoding session: %w", err)
	}
	return string(raw), nil
}

func decodeRecord(value string) (record, bool) {
	var r record
	if err := json.Unmarshal([]byte(value), &r); err != nil {
		return record{}, false
	}
	if r.UserID == uuid.Nil || r.RefreshHash == "" {
		return record{}, false
	}
	return r, true
}

// matches compares in constant time.
func (r record) matches(refreshToken string) bool {
	return subtle.ConstantTimeCompare([]byte(r.RefreshHash), []byte(digest(refreshToken))) == 1
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
