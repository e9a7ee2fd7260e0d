package mdm

import (
	mdmerrors "github.com/mdmtools/mdmkit/pkg/errors"
)

// IntuneEnvPrefix is tried after the bare name for named parameters.
const IntuneEnvPrefix = "INTUNE_"

// IntuneProvider reads Intune script parameters. Index keys address the
// argument vector directly (no reserved slots); Name keys are environment
// variables, falling back to the INTUNE_ prefixed form.
type IntuneProvider struct {
	src source
}

func NewIntuneProvider(opts ...ProviderOption) *IntuneProvider {
	return &IntuneProvider{src: newSource(opts)}
}

func (p *IntuneProvider) Get(key Key) (string, bool, error) {
	switch k := key.(type) {
	case Index:
		if k < 0 {
			return "", false, mdmerrors.NewParameterError(string(Intune), k.String(),
				mdmerrors.ErrParameterOutOfRange, "index must not be negative")
		}
		value, ok := p.src.arg(int(k))
		return value, ok, nil
	case Name:
		if k == "" {
			return "", false, mdmerrors.NewParameterError(string(Intune), `""`,
				mdmerrors.ErrInvalidParameterKey, "name must not be empty")
		}
		if value, ok := p.src.lookupEnv(string(k)); ok {
			return value, true, nil
		}
		value, ok := p.src.lookupEnv(IntuneEnvPrefix + string(k))
		return value, ok, nil
	}
	return "", false, mdmerrors.NewParameterError(string(Intune), keyString(key),
		mdmerrors.ErrInvalidParameterKey, "key is required")
}

func (p *IntuneProvider) GetBool(key Key) (bool, error) {
	return getBool(p.Get, key)
}

func (p *IntuneProvider) GetInt(key Key, def int) (int, error) {
	return getInt(p.Get, key, def)
}
