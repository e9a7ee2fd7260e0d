// Package mdm reads deployment script parameters the way each MDM agent
// passes them.
package mdm

import "strconv"

// Key addresses a script parameter: either a positional Index into the
// argument vector or a Name looked up in the environment.
type Key interface {
	String() string
	isKey()
}

// Index is a positional parameter; 0 is the script itself.
type Index int

func (i Index) String() string {
	return "$" + strconv.Itoa(int(i))
}

func (Index) isKey() {}

// Name is a named parameter.
type Name string

func (n Name) String() string {
	return string(n)
}

func (Name) isKey() {}

// keyString renders key for error messages; names are quoted.
func keyString(key Key) string {
	switch k := key.(type) {
	case nil:
		return "<nil>"
	case Name:
		return strconv.Quote(string(k))
	}
	return key.String()
}
