package service

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"liquidityCore/internal/asset"
)

// ParseAccount converts a hex account address.
func ParseAccount(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid account address: %q", input)
	}
	return common.HexToAddress(input), nil
}

// ParsePair parses two asset type identifiers.
func ParsePair(a, b string) (asset.TypeID, asset.TypeID, error) {
	typeA, err := asset.ParseTypeID(a)
	if err != nil {
		return asset.TypeID{}, asset.TypeID{}, err
	}
	typeB, err := asset.ParseTypeID(b)
	if err != nil {
		return asset.TypeID{}, asset.TypeID{}, err
	}
	return typeA, typeB, nil
}
