// Package avatar resolves commenter avatar URLs from Gravatar.
package avatar

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// DefaultBaseURL is the public Gravatar endpoint.
const DefaultBaseURL = "https://www.gravatar.com/avatar"

// Resolver maps an email to an avatar image URL.
type Resolver interface {
	URL(ctx context.Context, email string, size int) string
}

// Hash is the Gravatar identifier for an email: MD5 of the trimmed, lower-cased address.
func Hash(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

func personalURL(base, hash string, size int) string {
	return fmt.Sprintf("%s/%s?s=%d", base, hash, size)
}

func identiconURL(base, hash string, size int) string {
	return fmt.Sprintf("%s/%s?d=identicon&s=%d", base, hash, size)
}

// Static always returns the identicon URL and never touches the network.
type Static struct {
	BaseURL string
}

func (s Static) URL(_ context.Context, email string, size int) string {
	base := s.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return identiconURL(base, Hash(email), size)
}
