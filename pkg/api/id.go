package api

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const (
	idLength = 24
	charset  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	viewIDPrefix       = "view_"
	connectionIDPrefix = "conn_"
)

var (
	viewIDPattern       = regexp.MustCompile(`^view_[a-zA-Z0-9]{24}$`)
	connectionIDPattern = regexp.MustCompile(`^conn_[a-zA-Z0-9]{24}$`)
)

// NewViewID returns "view_" followed by 24 random alphanumeric characters.
func NewViewID() string {
	return viewIDPrefix + randomAlphanumeric(idLength)
}

// NewConnectionID returns "conn_" followed by 24 random alphanumeric characters.
func NewConnectionID() string {
	return connectionIDPrefix + randomAlphanumeric(idLength)
}

// ValidateViewID reports whether id has the view ID format.
func ValidateViewID(id string) bool {
	return viewIDPattern.MatchString(id)
}

// ValidateConnectionID reports whether id has the connection ID format.
func ValidateConnectionID(id string) bool {
	return connectionIDPattern.MatchString(id)
}

func randomAlphanumeric(n int) string {
	max := big.NewInt(int64(len(charset)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		b[i] = charset[idx.Int64()]
	}
	return string(b)
}
