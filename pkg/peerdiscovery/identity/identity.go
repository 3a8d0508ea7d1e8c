// Package identity resolves a human-readable label for a discovered host.
//
// A label comes from reverse DNS first and from a NetBIOS name query
// second. Lookups that fail or time out yield an empty label; the package
// never returns an error to its caller. Resolved labels, including empty
// ones, are cached per address for the lifetime of the Resolver.
package identity

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/projectdiscovery/gcache"
	"github.com/projectdiscovery/gologger"
)

const (
	DefaultTimeout   = 2 * time.Second
	defaultCacheSize = 4096
)

// Lookup resolves a label for an address, returning "" when none is known
type Lookup func(ctx context.Context, ip net.IP) string

// Options configures a Resolver
type Options struct {
	// Timeout bounds each individual lookup
	Timeout time.Duration
	// DisableNetBIOS skips the NetBIOS fallback
	DisableNetBIOS bool
	// Lookups overrides the resolution chain, mostly for tests
	Lookups []Lookup
}

// Resolver labels hosts by reverse DNS and NetBIOS
type Resolver struct {
	timeout time.Duration
	lookups []Lookup
	cache   gcache.Cache[string, string]
}

// New creates a resolver with the default reverse DNS then NetBIOS chain
func New(options Options) *Resolver {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	r := &Resolver{
		timeout: timeout,
		cache: gcache.New[string, string](defaultCacheSize).
			LRU().
			Expiration(time.Hour).
			Build(),
	}

	if len(options.Lookups) > 0 {
		r.lookups = options.Lookups
		return r
	}

	ptr := newPTRResolver(timeout)
	r.lookups = append(r.lookups, ptr.Lookup)
	if !options.DisableNetBIOS {
		r.lookups = append(r.lookups, NetBIOSName)
	}
	return r
}

// Label returns the first non-empty label of the resolution chain
func (r *Resolver) Label(ctx context.Context, ip net.IP) string {
	key := ip.String()
	if label, err := r.cache.Get(key); err == nil {
		return label
	}

	var label string
	for _, lookup := range r.lookups {
		if ctx.Err() != nil {
			return ""
		}
		lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
		label = cleanLabel(lookup(lookupCtx, ip))
		cancel()
		if label != "" {
			break
		}
	}

	if err := r.cache.Set(key, label); err != nil {
		gologger.Debug().Msgf("identity: could not cache label for %s: %v", key, err)
	}
	return label
}

func cleanLabel(label string) string {
	return strings.TrimSuffix(strings.TrimSpace(label), ".")
}
