package asset

import "errors"

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrAmountOverflow        = errors.New("amount overflow")
	ErrTypeMismatch          = errors.New("asset type mismatch")
	ErrCoinAlreadyRegistered = errors.New("coin already registered")
	ErrCoinNotRegistered     = errors.New("coin not registered")
	ErrWrongCapability       = errors.New("capability does not match coin")
	ErrCapabilityClaimed     = errors.New("capability already claimed")
	ErrInvalidTypeID         = errors.New("invalid asset type id")
)
