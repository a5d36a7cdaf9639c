// Package dialer resolves the address of the RPC Test Server from flags,
// the environment and defaults.
package dialer

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Resolver resolves a service, getting an address or URL.
type Resolver interface {
	// Resolve resolves a service, getting an address or URL (or an error).
	// An empty result with no error means this resolver has no opinion.
	Resolve() (string, error)
}

// ConstantResolver always returns the same value
type ConstantResolver struct {
	s string
}

// NewConstantResolver creates a ConstantResolver
func NewConstantResolver(s string) *ConstantResolver {
	return &ConstantResolver{s: s}
}

// Resolve returns the constant
func (r *ConstantResolver) Resolve() (string, error) {
	return r.s, nil
}

func (r *ConstantResolver) String() string {
	return fmt.Sprintf("constant(%q)", r.s)
}

// EnvResolver resolves by looking for a key in the OS Environment
type EnvResolver struct {
	key string
}

// NewEnvResolver creates a new EnvResolver
func NewEnvResolver(key string) *EnvResolver {
	return &EnvResolver{key: key}
}

// Resolve resolves by looking for a key in the OS Environment
func (r *EnvResolver) Resolve() (string, error) {
	return strings.TrimSpace(os.Getenv(r.key)), nil
}

func (r *EnvResolver) String() string {
	return "$" + r.key
}

// CompositeResolver resolves by resolving, in order, via delegates
type CompositeResolver struct {
	dels []Resolver
}

// NewCompositeResolver creates a new CompositeResolver that resolves by looking through delegates (in order)
func NewCompositeResolver(dels ...Resolver) *CompositeResolver {
	return &CompositeResolver{dels: dels}
}

// Resolve returns the first non-empty value or error of the delegates.
func (r *CompositeResolver) Resolve() (string, error) {
	for _, d := range r.dels {
		if s, err := d.Resolve(); s != "" || err != nil {
			return s, err
		}
	}
	return "", fmt.Errorf("could not resolve: no delegate resolved: %v", r.dels)
}

// URLResolver normalizes the result of its delegate into a base URL:
// a bare host:port gets an http scheme and trailing slashes are dropped.
type URLResolver struct {
	del Resolver
}

func NewURLResolver(del Resolver) *URLResolver {
	return &URLResolver{del: del}
}

func (r *URLResolver) Resolve() (string, error) {
	s, err := r.del.Resolve()
	if err != nil || s == "" {
		return s, err
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid server address %q: %v", s, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid server address %q: want http(s)://host[:port]", s)
	}
	return strings.TrimRight(s, "/"), nil
}

// ServerURLEnvVar names the environment variable consulted for the server URL.
const ServerURLEnvVar = "RPCTEST_SERVER_URL"

// NewServerURLResolver resolves the server URL from flag, then $RPCTEST_SERVER_URL, then def.
func NewServerURLResolver(flag, def string) Resolver {
	return NewURLResolver(NewCompositeResolver(
		NewConstantResolver(strings.TrimSpace(flag)),
		NewEnvResolver(ServerURLEnvVar),
		NewConstantResolver(def),
	))
}
