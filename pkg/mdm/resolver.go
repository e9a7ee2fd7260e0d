package mdm

import (
	"os"
	"strings"
	"sync"

	mdmerrors "github.com/mdmtools/mdmkit/pkg/errors"
	"github.com/mdmtools/mdmkit/pkg/logger"
	"github.com/mdmtools/mdmkit/pkg/platform"
)

// SupportedProviders lists the provider keys in the order shown to operators.
func SupportedProviders() []ProviderKey {
	return []ProviderKey{Jamf, Intune}
}

// ParseProviderKey normalizes a provider name.
func ParseProviderKey(raw string) (ProviderKey, error) {
	switch ProviderKey(strings.ToLower(strings.TrimSpace(raw))) {
	case Jamf:
		return Jamf, nil
	case Intune:
		return Intune, nil
	}
	supported := make([]string, 0, 2)
	for _, k := range SupportedProviders() {
		supported = append(supported, string(k))
	}
	return "", &mdmerrors.UnsupportedProviderError{Key: raw, Supported: supported, EnvVar: EnvProvider}
}

// DefaultProviderFor is the provider an MDM agent on key normally is.
func DefaultProviderFor(key platform.Key) ProviderKey {
	if key == platform.Windows {
		return Intune
	}
	return Jamf
}

// Resolver selects and memoizes providers, one per key. active is the key
// answered when no override is given.
type Resolver struct {
	getenv    func(string) string
	platforms *platform.Resolver
	opts      []ProviderOption
	logger    *logger.Logger

	mu     sync.RWMutex
	active ProviderKey
	cached map[ProviderKey]ParamProvider
}

type ResolverOption func(*Resolver)

// WithGetenv replaces the environment lookup used for PYMDM_MDM_PROVIDER.
func WithGetenv(getenv func(string) string) ResolverOption {
	return func(r *Resolver) {
		r.getenv = getenv
	}
}

// WithPlatformResolver sets the resolver consulted for the platform default.
func WithPlatformResolver(p *platform.Resolver) ResolverOption {
	return func(r *Resolver) {
		r.platforms = p
	}
}

// WithProviderOptions is applied to every provider the resolver builds.
func WithProviderOptions(opts ...ProviderOption) ResolverOption {
	return func(r *Resolver) {
		r.opts = append(r.opts, opts...)
	}
}

func WithLogger(l *logger.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = l
	}
}

func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		getenv:    os.Getenv,
		platforms: platform.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Key resolves the provider key: the explicit override if non-empty, then
// PYMDM_MDM_PROVIDER, then the default for the active platform. A platform
// that cannot be resolved defaults to Jamf.
func (r *Resolver) Key(override string) (ProviderKey, error) {
	if strings.TrimSpace(override) != "" {
		return ParseProviderKey(override)
	}
	if env := r.getenv(EnvProvider); strings.TrimSpace(env) != "" {
		return ParseProviderKey(env)
	}
	pk, err := r.platforms.Key("")
	if err != nil {
		return Jamf, nil
	}
	return DefaultProviderFor(pk), nil
}

// Provider returns the provider for override, or for the active key when
// override is empty. Every key is built at most once until ClearCache.
func (r *Resolver) Provider(override string) (ParamProvider, error) {
	var key ProviderKey
	if strings.TrimSpace(override) != "" {
		k, err := ParseProviderKey(override)
		if err != nil {
			return nil, err
		}
		key = k
	}

	r.mu.RLock()
	lookup := key
	if lookup == "" {
		lookup = r.active
	}
	if p, ok := r.cached[lookup]; ok && lookup != "" {
		r.mu.RUnlock()
		return p, nil
	}
	r.mu.RUnlock()

	explicit := key != ""
	if !explicit {
		k, err := r.Key("")
		if err != nil {
			return nil, err
		}
		key = k
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.active == "":
		r.active = key
	case !explicit:
		key = r.active
	}
	if p, ok := r.cached[key]; ok {
		return p, nil
	}
	if r.cached == nil {
		r.cached = make(map[ProviderKey]ParamProvider)
	}
	p := r.build(key)
	r.cached[key] = p
	if r.logger != nil {
		r.logger.Debug("resolved MDM provider", "provider", string(key))
	}
	return p, nil
}

func (r *Resolver) build(key ProviderKey) ParamProvider {
	return NewProvider(key, r.opts...)
}

// NewProvider builds the provider for key without caching it. Unknown keys
// get Jamf, the fallback used for unrecognized platforms.
func NewProvider(key ProviderKey, opts ...ProviderOption) ParamProvider {
	if key == Intune {
		return NewIntuneProvider(opts...)
	}
	return NewJamfProvider(opts...)
}

func (r *Resolver) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = ""
	r.cached = nil
}

var defaultResolver = NewResolver()

// Default returns the process-wide provider resolver.
func Default() *Resolver {
	return defaultResolver
}

// GetProvider resolves the provider on the process-wide resolver.
func GetProvider() (ParamProvider, error) {
	return defaultResolver.Provider("")
}

// ClearCache resets the process-wide provider resolver.
func ClearCache() {
	defaultResolver.ClearCache()
}
