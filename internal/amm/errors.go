package amm

import "errors"

var (
	ErrInvalidPair                  = errors.New("invalid pair")
	ErrUninitializedAsset           = errors.New("asset is not an initialized coin")
	ErrPoolAlreadyExists            = errors.New("pool already exists")
	ErrPoolNotFound                 = errors.New("pool not found")
	ErrInsufficientInitialLiquidity = errors.New("insufficient initial liquidity")
	ErrZeroLiquidityMinted          = errors.New("zero liquidity minted")
	ErrBelowMinimumLiquidity        = errors.New("total shares at or below minimum liquidity")
	ErrZeroRedemption               = errors.New("redemption yields zero")
	ErrNoAmountProvided             = errors.New("no input amount provided")
	ErrInvariantViolated            = errors.New("constant product invariant violated")
	ErrWrongShareToken              = errors.New("balance is not this pool's share token")
	ErrReservedAssetType            = errors.New("asset type is reserved for pool share tokens")
)
