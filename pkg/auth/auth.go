package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// AuthDecision is an authenticator's vote on a request.
type AuthDecision int

const (
	// Yes accepts the request as the returned identity and ends the chain.
	Yes AuthDecision = iota

	// No rejects the request and ends the chain.
	No

	// Abstain passes the request to the next authenticator, for example
	// when it carries no bearer token.
	Abstain
)

// String returns the lower case name used in logs.
func (d AuthDecision) String() string {
	switch d {
	case Yes:
		return "yes"
	case No:
		return "no"
	case Abstain:
		return "abstain"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// AuthResult is the outcome of one authentication attempt.
type AuthResult struct {
	Decision AuthDecision
	Identity *Identity // set when Decision is Yes
	Err      error     // set when Decision is No
}

// Identity is the caller of a request.
type Identity struct {
	// Subject names the caller in logs and rate limits. Never empty.
	Subject string

	// Username is the database user the connection was opened as.
	Username string

	// ConnectionID is the console connection the request acts on. Empty
	// for identities not bound to a connection.
	ConnectionID string
}

// Bound reports whether the identity acts on a connection.
func (id *Identity) Bound() bool {
	return id != nil && id.ConnectionID != ""
}

// Authenticator votes on the credentials of a request.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) AuthResult
}

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrTooManyRequests = errors.New("rate limit exceeded")

	// ErrConnectionClosed rejects a valid session whose connection was
	// closed. It wraps ErrUnauthenticated.
	ErrConnectionClosed = fmt.Errorf("%w: connection closed", ErrUnauthenticated)
)

// AuthChain asks each authenticator in turn until one votes Yes or No.
type AuthChain struct {
	Authenticators []Authenticator

	// DefaultDecision applies when every authenticator abstains. Yes admits
	// an anonymous caller that is not bound to any connection.
	DefaultDecision AuthDecision
}

// Authenticate runs the chain.
func (c *AuthChain) Authenticate(ctx context.Context, r *http.Request) AuthResult {
	for _, authn := range c.Authenticators {
		if result := authn.Authenticate(ctx, r); result.Decision != Abstain {
			return result
		}
	}
	if c.DefaultDecision == Yes {
		return AuthResult{Decision: Yes, Identity: &Identity{Subject: "anonymous"}}
	}
	return AuthResult{Decision: No, Err: ErrUnauthenticated}
}
