package token

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient token balance")
	ErrInsufficientAllowance = errors.New("insufficient token allowance")
	ErrNegativeAmount        = errors.New("token amount must not be negative")
)

// Service is the fungible-token collaborator the engine settles against.
// Implementations hold balances for many tokens keyed by address.
type Service interface {
	BalanceOf(token, account common.Address) (*big.Int, error)
	Transfer(token, from, to common.Address, amount *big.Int) error
	TransferFrom(token, spender, owner, to common.Address, amount *big.Int) error
	Approve(token, owner, spender common.Address, amount *big.Int) error
	Allowance(token, owner, spender common.Address) (*big.Int, error)
}

type balanceKey struct {
	token   common.Address
	account common.Address
}

type allowanceKey struct {
	token   common.Address
	owner   common.Address
	spender common.Address
}

// InMemoryService is a Service backed by maps, used by tests and the demo
// binary. An optional per-token transfer fee (in basis points) burns part
// of every transfer, which is how deflationary tokens are simulated.
type InMemoryService struct {
	mu          sync.Mutex
	balances    map[balanceKey]*big.Int
	allowances  map[allowanceKey]*big.Int
	transferFee map[common.Address]int64
}

func NewInMemoryService() *InMemoryService {
	return &InMemoryService{
		balances:    make(map[balanceKey]*big.Int),
		allowances:  make(map[allowanceKey]*big.Int),
		transferFee: make(map[common.Address]int64),
	}
}

// Mint credits an account out of thin air. Test setup only.
func (s *InMemoryService) Mint(token, account common.Address, amount *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credit(token, account, amount)
}

// SetTransferFee makes a token burn feeBps/10000 of every transfer.
func (s *InMemoryService) SetTransferFee(token common.Address, feeBps int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transferFee[token] = feeBps
}

func (s *InMemoryService) BalanceOf(token, account common.Address) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return new(big.Int).Set(s.balance(token, account)), nil
}

func (s *InMemoryService) Transfer(token, from, to common.Address, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.move(token, from, to, amount)
}

func (s *InMemoryService) TransferFrom(token, spender, owner, to common.Address, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	if spender != owner {
		allowed := s.allowance(token, owner, spender)
		if allowed.Cmp(amount) < 0 {
			return ErrInsufficientAllowance
		}
		allowed.Sub(allowed, amount)
	}
	return s.move(token, owner, to, amount)
}

func (s *InMemoryService) Approve(token, owner, spender common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allowances[allowanceKey{token, owner, spender}] = new(big.Int).Set(amount)
	return nil
}

func (s *InMemoryService) Allowance(token, owner, spender common.Address) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return new(big.Int).Set(s.allowance(token, owner, spender)), nil
}

func (s *InMemoryService) balance(token, account common.Address) *big.Int {
	b, ok := s.balances[balanceKey{token, account}]
	if !ok {
		b = new(big.Int)
		s.balances[balanceKey{token, account}] = b
	}
	return b
}

func (s *InMemoryService) allowance(token, owner, spender common.Address) *big.Int {
	a, ok := s.allowances[allowanceKey{token, owner, spender}]
	if !ok {
		a = new(big.Int)
		s.allowances[allowanceKey{token, owner, spender}] = a
	}
	return a
}

func (s *InMemoryService) credit(token, account common.Address, amount *big.Int) {
	s.balance(token, account).Add(s.balance(token, account), amount)
}

func (s *InMemoryService) move(token, from, to common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}

	fromBal := s.balance(token, from)
	if fromBal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}

	received := new(big.Int).Set(amount)
	if feeBps := s.transferFee[token]; feeBps > 0 {
		fee := new(big.Int).Mul(amount, big.NewInt(feeBps))
		fee.Quo(fee, big.NewInt(10_000))
		received.Sub(received, fee)
	}

	fromBal.Sub(fromBal, amount)
	s.credit(token, to, received)
	return nil
}
