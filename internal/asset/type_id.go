package asset

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const typeSeparator = "::"

// TypeID names a fungible asset kind by its defining address, module and type name.
type TypeID struct {
	Address common.Address
	Module  string
	Name    string
}

// NewTypeID builds a TypeID and validates its parts.
func NewTypeID(address common.Address, module, name string) (TypeID, error) {
	t := TypeID{Address: address, Module: module, Name: name}
	if err := t.Validate(); err != nil {
		return TypeID{}, err
	}
	return t, nil
}

// ParseTypeID parses the textual form 0x<address>::<module>::<name>.
// The name may itself contain the separator, as share token names do.
func ParseTypeID(input string) (TypeID, error) {
	parts := strings.SplitN(strings.TrimSpace(input), typeSeparator, 3)
	if len(parts) != 3 {
		return TypeID{}, fmt.Errorf("%w: %q", ErrInvalidTypeID, input)
	}
	if !common.IsHexAddress(parts[0]) {
		return TypeID{}, fmt.Errorf("%w: bad address %q", ErrInvalidTypeID, parts[0])
	}
	return NewTypeID(common.HexToAddress(parts[0]), parts[1], parts[2])
}

// MustParseTypeID is ParseTypeID for static inputs.
func MustParseTypeID(input string) TypeID {
	t, err := ParseTypeID(input)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TypeID) Validate() error {
	if t.Module == "" || t.Name == "" {
		return fmt.Errorf("%w: empty module or name", ErrInvalidTypeID)
	}
	if strings.Contains(t.Module, typeSeparator) {
		return fmt.Errorf("%w: module %q contains %q", ErrInvalidTypeID, t.Module, typeSeparator)
	}
	return nil
}

func (t TypeID) IsZero() bool {
	return t == TypeID{}
}

func (t TypeID) String() string {
	return t.Address.Hex() + typeSeparator + t.Module + typeSeparator + t.Name
}
