// Package passwords turns plaintext passwords into stored digests and checks
// candidates against them.
//
// bcrypt only looks at the first 72 bytes of its input and rejects anything
// longer, so every password goes through Normalize first, at hash time and at
// verify time alike. Normalize cuts the UTF-8 encoding at MaxPasswordBytes and
// drops whatever is left of a multi-byte character split by the cut, as well
// as any other invalid UTF-8. It does not trim whitespace.
package passwords

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gamestarter/internal/common"
	"github.com/dmitrijs2005/gamestarter/internal/logging"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the bcrypt input ceiling.
const MaxPasswordBytes = 72

// digestPrefix marks every bcrypt variant ($2a$, $2b$, $2y$).
const digestPrefix = "$2"

// Codec hashes and verifies passwords.
type Codec interface {
	// Hash returns the digest to store for password.
	Hash(password string) (string, error)
	// Verify reports whether password matches digest. It never fails:
	// anything that is not a clean match is false.
	Verify(password, digest string) bool
}

// Normalize returns the form of password that is actually hashed.
func Normalize(password string) string {
	if len(password) > MaxPasswordBytes {
		password = password[:MaxPasswordBytes]
	}
	return strings.ToValidUTF8(password, "")
}

// IsSupportedDigest reports whether digest looks like a bcrypt digest.
func IsSupportedDigest(digest string) bool {
	return strings.HasPrefix(digest, digestPrefix)
}

// BcryptCodec is the production Codec.
type BcryptCodec struct {
	cost   int
	logger logging.Logger
}

// NewBcryptCodec returns a codec hashing at cost. bcrypt raises costs below
// bcrypt.MinCost to its default; costs above bcrypt.MaxCost make Hash fail
// with common.ErrorCodec.
func NewBcryptCodec(cost int, logger logging.Logger) *BcryptCodec {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &BcryptCodec{cost: cost, logger: logger.With("module", "passwords")}
}

func (c *BcryptCodec) Hash(password string) (string, error) {
	normalized := Normalize(password)
	c.logLengths("hashing password", password, normalized)

	digest, err := bcrypt.GenerateFromPassword([]byte(normalized), c.cost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorCodec, err)
	}
	return string(digest), nil
}

func (c *BcryptCodec) Verify(password, digest string) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			c.logger.Error(context.Background(), "password verification panicked", "panic", p)
			ok = false
		}
	}()

	if password == "" || digest == "" {
		return false
	}

	if !IsSupportedDigest(digest) {
		c.logger.Warn(context.Background(), "stored digest is not bcrypt, refusing to verify")
		return false
	}

	normalized := Normalize(password)
	c.logLengths("verifying password", password, normalized)

	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(normalized)) == nil
}

// logLengths never logs the password itself.
func (c *BcryptCodec) logLengths(msg, raw, normalized string) {
	c.logger.Debug(context.Background(), msg,
		"len_chars", len([]rune(raw)),
		"len_bytes", len(raw),
		"len_bytes_normalized", len(normalized),
	)
}
