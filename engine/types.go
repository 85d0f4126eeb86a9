package engine

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrIdenticalTokens   = errors.New("pool tokens must differ")
	ErrPoolExists        = errors.New("pool already exists")
	ErrPoolNotFound      = errors.New("pool not found")
	ErrFeeNotEnabled     = errors.New("fee tier not enabled")
	ErrFeeEnabled        = errors.New("fee tier already enabled")
	ErrInvalidFee        = errors.New("fee must be below 100%")
	ErrInvalidSpacing    = errors.New("tick spacing out of range")
	ErrNotOwner          = errors.New("caller is not the owner")
	ErrSlippage          = errors.New("amounts below requested minimums")
	ErrTransferShortfall = errors.New("transfer delivered less than requested")
)

// PoolKey identifies a market by its sorted token pair and fee tier.
type PoolKey struct {
	Token0 common.Address
	Token1 common.Address
	Fee    uint32
}

// PoolID is the keccak hash of the pool key, used in events and lookups.
type PoolID = common.Hash

// SortTokens orders a token pair canonically: token0 < token1.
func SortTokens(a, b common.Address) (common.Address, common.Address) {
	if a.Cmp(b) > 0 {
		return b, a
	}
	return a, b
}

// ComputePoolID derives the deterministic id for a pool key.
func ComputePoolID(key PoolKey) PoolID {
	buf := make([]byte, 0, 2*common.AddressLength+4)
	buf = append(buf, key.Token0.Bytes()...)
	buf = append(buf, key.Token1.Bytes()...)
	buf = append(buf,
		byte(key.Fee>>24), byte(key.Fee>>16), byte(key.Fee>>8), byte(key.Fee))
	return crypto.Keccak256Hash(buf)
}
