package mdm

import (
	"fmt"

	mdmerrors "github.com/mdmtools/mdmkit/pkg/errors"
)

// Jamf Pro passes $0 script name, $1 target mount point, $2 computer name and
// $3 console username. Policy parameters occupy $4 through $11.
const (
	JamfFirstParam = 4
	JamfLastParam  = 11
)

// JamfProvider reads Jamf Pro policy parameters from the argument vector.
type JamfProvider struct {
	src source
}

func NewJamfProvider(opts ...ProviderOption) *JamfProvider {
	return &JamfProvider{src: newSource(opts)}
}

func (j *JamfProvider) Get(key Key) (string, bool, error) {
	idx, ok := key.(Index)
	if !ok {
		return "", false, mdmerrors.NewParameterError(string(Jamf), keyString(key),
			mdmerrors.ErrInvalidParameterKey,
			fmt.Sprintf("keys must be integer indexes between %d and %d", JamfFirstParam, JamfLastParam))
	}
	if err := validateJamfIndex(idx); err != nil {
		return "", false, err
	}
	value, ok := j.src.arg(int(idx))
	return value, ok, nil
}

func (j *JamfProvider) GetBool(key Key) (bool, error) {
	return getBool(j.Get, key)
}

func (j *JamfProvider) GetInt(key Key, def int) (int, error) {
	return getInt(j.Get, key, def)
}

func validateJamfIndex(idx Index) error {
	switch {
	case idx >= 0 && idx < JamfFirstParam:
		return mdmerrors.NewParameterError(string(Jamf), idx.String(), mdmerrors.ErrReservedParameter,
			fmt.Sprintf("reserved by Jamf Pro, use $%d-$%d instead", JamfFirstParam, JamfLastParam))
	case idx < JamfFirstParam || idx > JamfLastParam:
		return mdmerrors.NewParameterError(string(Jamf), idx.String(), mdmerrors.ErrParameterOutOfRange,
			fmt.Sprintf("out of usable range, use $%d-$%d", JamfFirstParam, JamfLastParam))
	}
	return nil
}
