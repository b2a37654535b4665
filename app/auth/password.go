package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	DefaultIterations = 600000
	DefaultSaltLength = 8

	hashMethod   = "pbkdf2"
	hashFunction = "sha256"
	saltChars    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var errMalformedHash = errors.New("malformed password hash")

// Hasher produces and checks salted PBKDF2-SHA256 hashes in the
// "pbkdf2:sha256:<iterations>$<salt>$<hex>" format.
type Hasher struct {
	Iterations int
	SaltLength int
}

func NewHasher(iterations, saltLength int) *Hasher {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	if saltLength <= 0 {
		saltLength = DefaultSaltLength
	}
	return &Hasher{Iterations: iterations, SaltLength: saltLength}
}

// Hash derives a storable hash for password with a fresh random salt.
func (h *Hasher) Hash(password string) (string, error) {
	salt, err := randomSalt(h.SaltLength)
	if err != nil {
		return "", err
	}
	digest := derive(password, salt, h.Iterations)
	return fmt.Sprintf("%s:%s:%d$%s$%s", hashMethod, hashFunction, h.Iterations, salt, hex.EncodeToString(digest)), nil
}

// Verify reports whether password matches the stored hash. Unknown or
// malformed formats never match.
func (h *Hasher) Verify(stored, password string) bool {
	iterations, salt, want, err := parseHash(stored)
	if err != nil {
		return false
	}
	got := derive(password, salt, iterations)
	return subtle.ConstantTimeCompare(got, want) == 1
}

func derive(password, salt string, iterations int) []byte {
	return pbkdf2.Key([]byte(password), []byte(salt), iterations, sha256.Size, sha256.New)
}

func parseHash(stored string) (int, string, []byte, error) {
	parts := strings.SplitN(stored, "$", 3)
	if len(parts) != 3 {
		return 0, "", nil, errMalformedHash
	}
	method, salt, digest := parts[0], parts[1], parts[2]

	fields := strings.Split(method, ":")
	if len(fields) < 2 || len(fields) > 3 || fields[0] != hashMethod || fields[1] != hashFunction {
		return 0, "", nil, errMalformedHash
	}

	iterations := DefaultIterations
	if len(fields) == 3 {
		n, err := strconv.Atoi(fields[2])
		if err != nil || n <= 0 {
			return 0, "", nil, errMalformedHash
		}
		iterations = n
	}

	want, err := hex.DecodeString(digest)
	if err != nil || len(want) != sha256.Size || salt == "" {
		return 0, "", nil, errMalformedHash
	}
	return iterations, salt, want, nil
}

func randomSalt(n int) (string, error) {
	limit := big.NewInt(int64(len(saltChars)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate salt: %w", err)
		}
		out[i] = saltChars[idx.Int64()]
	}
	return string(out), nil
}
