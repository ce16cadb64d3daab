package security_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/cakeshop-backend/pkg/config"
	"github.com/angelmondragon/cakeshop-backend/pkg/security"
)

var cheapArgon = config.PasswordConfig{
	ArgonMemoryKB:    32768,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestPasswordHashVerifies(t *testing.T) {
	hash, err := security.HashPassword("Sponge&Ganache1", cheapArgon)
	require.NoError(t, err)
	require.Regexp(t, `^\$argon2id\$v=19\$m=32768,t=1,p=1\$[A-Za-z0-9+/]+\$[A-Za-z0-9+/]+$`, hash)

	ok, err := security.VerifyPassword("Sponge&Ganache1", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = security.VerifyPassword("sponge&ganache1", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPasswordHashIsSalted(t *testing.T) {
	a, err := security.HashPassword("same-password", cheapArgon)
	require.NoError(t, err)
	b, err := security.HashPassword("same-password", cheapArgon)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	_, err := security.HashPassword("", cheapArgon)
	require.Error(t, err)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=8,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=16$m=8,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8,t=1,p=1$!!$aGFzaA",
		"$argon2id$v=19$m=8,t=1,p=1$c2FsdA$",
	} {
		_, err := security.VerifyPassword("irrelevant", encoded)
		require.ErrorIs(t, err, security.ErrInvalidHash, encoded)
	}
}

func TestNeedsRehashTracksConfig(t *testing.T) {
	cfg := cheapArgon
	hash, err := security.HashPassword("pw-123456", cfg)
	require.NoError(t, err)
	require.False(t, security.NeedsRehash(hash, cfg))

	cfg.ArgonTime = 2
	require.True(t, security.NeedsRehash(hash, cfg))
	require.True(t, security.NeedsRehash("garbage", cfg))
}

func TestParamsFromConfigClampsZeroValues(t *testing.T) {
	params := security.ParamsFromConfig(config.PasswordConfig{})
	require.Equal(t, security.ArgonParams{Memory: 8, Time: 1, Parallelism: 1, SaltLen: 8, KeyLen: 16}, params)
}
