package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/angelmondragon/cakeshop-backend/pkg/config"
)

// ErrInvalidHash is returned for stored hashes that are not PHC-formatted argon2id.
var ErrInvalidHash = errors.New("invalid argon2id hash")

var b64 = base64.RawStdEncoding

// ArgonParams are the cost settings written into every hash, so verification
// never depends on the current config.
type ArgonParams struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

// ParamsFromConfig bounds each configured cost to a sane range.
func ParamsFromConfig(cfg config.PasswordConfig) ArgonParams {
	return ArgonParams{
		Memory:      bounded(cfg.ArgonMemoryKB, 8, 512*1024),
		Time:        bounded(cfg.ArgonTime, 1, 10),
		Parallelism: uint8(bounded(cfg.ArgonParallelism, 1, 255)),
		SaltLen:     bounded(cfg.ArgonSaltLen, 8, 64),
		KeyLen:      bounded(cfg.ArgonKeyLen, 16, 64),
	}
}

func (p ArgonParams) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
}

// encode renders $argon2id$v=19$m=<kb>,t=<n>,p=<n>$<salt>$<key>.
func (p ArgonParams) encode(salt, key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Parallelism, b64.EncodeToString(salt), b64.EncodeToString(key))
}

// HashPassword derives an argon2id key under a fresh random salt.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	params := ParamsFromConfig(cfg)

	salt := make([]byte, params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return params.encode(salt, params.derive(password, salt)), nil
}

// VerifyPassword re-derives the key using the parameters stored in encoded.
// A mismatch is (false, nil); only a malformed hash is an error.
func VerifyPassword(password, encoded string) (bool, error) {
	params, salt, want, err := parseHash(encoded)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(want, params.derive(password, salt)) == 1, nil
}

// NeedsRehash reports whether encoded was produced with different parameters
// than cfg currently asks for. Unparseable hashes always need one.
func NeedsRehash(encoded string, cfg config.PasswordConfig) bool {
	params, _, _, err := parseHash(encoded)
	return err != nil || params != ParamsFromConfig(cfg)
}

func parseHash(encoded string) (params ArgonParams, salt, key []byte, err error) {
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return params, nil, nil, ErrInvalidHash
	}

	var version int
	if _, scanErr := fmt.Sscanf(fields[2], "v=%d", &version); scanErr != nil || version != argon2.Version {
		return params, nil, nil, ErrInvalidHash
	}
	if _, scanErr := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Time, &params.Parallelism); scanErr != nil {
		return params, nil, nil, ErrInvalidHash
	}
	if params.Memory == 0 || params.Time == 0 || params.Parallelism == 0 {
		return params, nil, nil, ErrInvalidHash
	}

	if salt, err = b64.DecodeString(fields[4]); err != nil || len(salt) == 0 {
		return params, nil, nil, ErrInvalidHash
	}
	if key, err = b64.DecodeString(fields[5]); err != nil || len(key) == 0 {
		return params, nil, nil, ErrInvalidHash
	}
	params.SaltLen, params.KeyLen = uint32(len(salt)), uint32(len(key))
	return params, salt, key, nil
}

func bounded(v, lo, hi int) uint32 {
	return uint32(min(max(v, lo), hi))
}
