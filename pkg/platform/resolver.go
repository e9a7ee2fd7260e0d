package platform

import (
	"os"
	"runtime"
	"strings"
	"sync"

	mdmerrors "github.com/mdmtools/mdmkit/pkg/errors"
	"github.com/mdmtools/mdmkit/pkg/logger"
)

// SupportedKeys lists the platform keys in the order shown to operators.
func SupportedKeys() []Key {
	return []Key{Darwin, Windows, Linux}
}

// ParseKey normalizes a platform name. "win32" is accepted for Windows. The
// error carries the value as given so operators can spot typos.
func ParseKey(raw string) (Key, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "darwin":
		return Darwin, nil
	case "win32", "windows":
		return Windows, nil
	case "linux":
		return Linux, nil
	}
	return "", unsupported(raw)
}

func unsupported(raw string) error {
	supported := make([]string, 0, len(SupportedKeys()))
	for _, k := range SupportedKeys() {
		supported = append(supported, string(k))
	}
	return &mdmerrors.UnsupportedPlatformError{Key: raw, Supported: supported, EnvVar: EnvPlatform}
}

// cacheEntry memoizes one instance per key for a capability kind. active is
// the key answered when no override is given.
type cacheEntry[T any] struct {
	active Key
	byKey  map[Key]T
}

// Resolver selects and memoizes one implementation per capability kind.
// Swapping one kind never forces the others to be re-resolved.
type Resolver struct {
	getenv func(string) string
	goos   string
	host   Host
	logger *logger.Logger

	mu      sync.RWMutex
	info    cacheEntry[SystemInfo]
	command cacheEntry[CommandSupport]
	dialog  cacheEntry[DialogSupport]
}

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// WithGetenv replaces the environment lookup used for PYMDM_PLATFORM.
func WithGetenv(getenv func(string) string) ResolverOption {
	return func(r *Resolver) {
		r.getenv = getenv
	}
}

// WithGOOS replaces the autodetected operating system identifier.
func WithGOOS(goos string) ResolverOption {
	return func(r *Resolver) {
		r.goos = goos
	}
}

// WithHost sets the host access layer handed to SystemInfo implementations.
func WithHost(host Host) ResolverOption {
	return func(r *Resolver) {
		r.host = host
	}
}

func WithLogger(l *logger.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = l
	}
}

func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		getenv: os.Getenv,
		goos:   runtime.GOOS,
		host:   NewBasePlatform(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Key resolves the active platform key: the explicit override if non-empty,
// then PYMDM_PLATFORM, then the operating system. Nothing is cached.
func (r *Resolver) Key(override string) (Key, error) {
	if strings.TrimSpace(override) != "" {
		return ParseKey(override)
	}
	if env := r.getenv(EnvPlatform); strings.TrimSpace(env) != "" {
		return ParseKey(env)
	}
	return ParseKey(r.goos)
}

func (r *Resolver) SystemInfo(override string) (SystemInfo, error) {
	return resolve(r, &r.info, "system_info", override, func(k Key) SystemInfo {
		switch k {
		case Darwin:
			return NewDarwinSystemInfo(r.host)
		case Windows:
			return NewWindowsSystemInfo(r.host)
		default:
			return NewLinuxSystemInfo(r.host)
		}
	})
}

func (r *Resolver) CommandSupport(override string) (CommandSupport, error) {
	return resolve(r, &r.command, "command_support", override, func(k Key) CommandSupport {
		switch k {
		case Darwin:
			return &DarwinCommandSupport{}
		case Windows:
			return &WindowsCommandSupport{}
		default:
			return &LinuxCommandSupport{}
		}
	})
}

func (r *Resolver) DialogSupport(override string) (DialogSupport, error) {
	return resolve(r, &r.dialog, "dialog_support", override, func(k Key) DialogSupport {
		switch k {
		case Darwin:
			return &DarwinDialogSupport{}
		case Windows:
			return &WindowsDialogSupport{}
		default:
			return &LinuxDialogSupport{}
		}
	})
}

// ClearCache drops every cached instance so the next call re-reads the
// environment.
func (r *Resolver) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.info = cacheEntry[SystemInfo]{}
	r.command = cacheEntry[CommandSupport]{}
	r.dialog = cacheEntry[DialogSupport]{}
}

// resolve memoizes one instance per (kind, key). The first successful
// resolution also fixes the key used when no override is given.
func resolve[T any](r *Resolver, entry *cacheEntry[T], kind, override string, build func(Key) T) (T, error) {
	var zero T

	var key Key
	if strings.TrimSpace(override) != "" {
		k, err := ParseKey(override)
		if err != nil {
			return zero, err
		}
		key = k
	}

	r.mu.RLock()
	lookup := key
	if lookup == "" {
		lookup = entry.active
	}
	if v, ok := entry.byKey[lookup]; ok && lookup != "" {
		r.mu.RUnlock()
		return v, nil
	}
	r.mu.RUnlock()

	explicit := key != ""
	if !explicit {
		k, err := r.Key("")
		if err != nil {
			return zero, err
		}
		key = k
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case entry.active == "":
		entry.active = key
	case !explicit:
		key = entry.active
	}
	if v, ok := entry.byKey[key]; ok {
		return v, nil
	}
	if entry.byKey == nil {
		entry.byKey = make(map[Key]T)
	}
	v := build(key)
	entry.byKey[key] = v
	if r.logger != nil {
		r.logger.Debug("resolved platform capability", "kind", kind, "platform", string(key))
	}
	return v, nil
}

var defaultResolver = NewResolver()

// Default returns the process-wide resolver.
func Default() *Resolver {
	return defaultResolver
}

// GetSystemInfo resolves SystemInfo on the process-wide resolver.
func GetSystemInfo() (SystemInfo, error) {
	return defaultResolver.SystemInfo("")
}

// GetCommandSupport resolves CommandSupport on the process-wide resolver.
func GetCommandSupport() (CommandSupport, error) {
	return defaultResolver.CommandSupport("")
}

// GetDialogSupport resolves DialogSupport on the process-wide resolver.
func GetDialogSupport() (DialogSupport, error) {
	return defaultResolver.DialogSupport("")
}

// ClearCache resets the process-wide resolver.
func ClearCache() {
	defaultResolver.ClearCache()
}

// KeyOf names the platform a built-in capability implementation belongs to,
// or "" for any other value.
func KeyOf(capability any) Key {
	switch capability.(type) {
	case *DarwinSystemInfo, DarwinCommandSupport, *DarwinCommandSupport, DarwinDialogSupport, *DarwinDialogSupport:
		return Darwin
	case *WindowsSystemInfo, WindowsCommandSupport, *WindowsCommandSupport, WindowsDialogSupport, *WindowsDialogSupport:
		return Windows
	case *LinuxSystemInfo, LinuxCommandSupport, *LinuxCommandSupport, LinuxDialogSupport, *LinuxDialogSupport:
		return Linux
	}
	return ""
}
