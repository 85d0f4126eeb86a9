package token

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	dai  = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	weth = common.HexToAddress("0x00000000000000000000000000000000000000e1")

	alice = common.HexToAddress("0x000000000000000000000000000000000000a11c")
	bob   = common.HexToAddress("0x000000000000000000000000000000000000b0b0")
)

func TestTransfer(t *testing.T) {
	s := NewInMemoryService()
	s.Mint(dai, alice, big.NewInt(1000))

	require.NoError(t, s.Transfer(dai, alice, bob, big.NewInt(300)))

	got, _ := s.BalanceOf(dai, alice)
	assert.Equal(t, int64(700), got.Int64())
	got, _ = s.BalanceOf(dai, bob)
	assert.Equal(t, int64(300), got.Int64())

	// Balances are tracked per token.
	got, _ = s.BalanceOf(weth, bob)
	assert.Equal(t, int64(0), got.Int64())
}

func TestTransferInsufficientBalance(t *testing.T) {
	s := NewInMemoryService()
	s.Mint(dai, alice, big.NewInt(100))

	err := s.Transfer(dai, alice, bob, big.NewInt(101))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	got, _ := s.BalanceOf(dai, alice)
	assert.Equal(t, int64(100), got.Int64(), "failed transfer moves nothing")
}

func TestTransferFromRequiresAllowance(t *testing.T) {
	s := NewInMemoryService()
	s.Mint(dai, alice, big.NewInt(1000))

	err := s.TransferFrom(dai, bob, alice, bob, big.NewInt(100))
	assert.ErrorIs(t, err, ErrInsufficientAllowance)

	require.NoError(t, s.Approve(dai, alice, bob, big.NewInt(500)))
	require.NoError(t, s.TransferFrom(dai, bob, alice, bob, big.NewInt(100)))

	left, _ := s.Allowance(dai, alice, bob)
	assert.Equal(t, int64(400), left.Int64(), "allowance decremented")
}

func TestTransferFromSelfSkipsAllowance(t *testing.T) {
	s := NewInMemoryService()
	s.Mint(dai, alice, big.NewInt(1000))

	require.NoError(t, s.TransferFrom(dai, alice, alice, bob, big.NewInt(100)))
}

func TestTransferFeeBurns(t *testing.T) {
	s := NewInMemoryService()
	s.Mint(dai, alice, big.NewInt(10_000))
	s.SetTransferFee(dai, 100) // 1%

	require.NoError(t, s.Transfer(dai, alice, bob, big.NewInt(1000)))

	got, _ := s.BalanceOf(dai, bob)
	assert.Equal(t, int64(990), got.Int64(), "recipient receives less than sent")
	got, _ = s.BalanceOf(dai, alice)
	assert.Equal(t, int64(9000), got.Int64(), "sender pays the full amount")
}

func TestNegativeAmounts(t *testing.T) {
	s := NewInMemoryService()

	assert.ErrorIs(t, s.Transfer(dai, alice, bob, big.NewInt(-1)), ErrNegativeAmount)
	assert.ErrorIs(t, s.Approve(dai, alice, bob, big.NewInt(-1)), ErrNegativeAmount)
}
