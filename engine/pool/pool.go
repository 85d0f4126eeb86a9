package pool

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/tickdex/tickdex-engine-go/engine/pool/math/fullmath"
	"github.com/tickdex/tickdex-engine-go/engine/pool/math/tickmath"
	"github.com/tickdex/tickdex-engine-go/engine/pool/oracle"
	"github.com/tickdex/tickdex-engine-go/engine/pool/position"
	"github.com/tickdex/tickdex-engine-go/engine/pool/tick"
)

var (
	ErrAlreadyInitialized = errors.New("pool is already initialized")
	ErrNotInitialized     = errors.New("pool is not initialized")
	ErrInvalidTickRange   = errors.New("invalid tick range")
	ErrZeroLiquidity      = errors.New("liquidity amount must be greater than zero")
	ErrZeroAmount         = errors.New("swap amount must not be zero")
	ErrInvalidPriceLimit  = errors.New("price limit out of range")
	ErrNegativeAmount     = errors.New("requested amount must not be negative")
)

// Config fixes the immutable parameters of a pool.
type Config struct {
	Token0      common.Address
	Token1      common.Address
	Fee         uint32 // in parts per million
	TickSpacing int64
}

// Pool is the state machine for one (token0, token1, fee) market. It owns
// the price, in-range liquidity, fee accumulators, tick registry, position
// ledger and observation ring. Pool is not safe for concurrent use; the
// engine serializes access.
type Pool struct {
	cfg Config

	sqrtPriceX96 *big.Int
	currentTick  int64
	liquidity    *big.Int

	feeGrowthGlobal0X128 *uint256.Int
	feeGrowthGlobal1X128 *uint256.Int

	ticks     *tick.Registry
	positions *position.Ledger
	obs       *oracle.Oracle

	initialized bool
}

// New builds an uninitialized pool. Trading requires Initialize to set the
// starting price first.
func New(cfg Config) (*Pool, error) {
	registry, err := tick.NewRegistry(cfg.TickSpacing)
	if err != nil {
		return nil, err
	}
	return &Pool{
		cfg:                  cfg,
		sqrtPriceX96:         new(big.Int),
		liquidity:            new(big.Int),
		feeGrowthGlobal0X128: new(uint256.Int),
		feeGrowthGlobal1X128: new(uint256.Int),
		ticks:                registry,
		positions:            position.NewLedger(),
		obs:                  oracle.New(),
	}, nil
}

// Initialize sets the starting price, derives the current tick and seeds
// the oracle. It can only happen once.
func (p *Pool) Initialize(sqrtPriceX96 *big.Int, now uint32) (int64, error) {
	if p.initialized {
		return 0, ErrAlreadyInitialized
	}

	startTick, err := tickmath.GetTickAtSqrtRatio(sqrtPriceX96)
	if err != nil {
		return 0, err
	}

	p.sqrtPriceX96.Set(sqrtPriceX96)
	p.currentTick = startTick
	p.obs.Initialize(now)
	p.initialized = true
	return startTick, nil
}

// Config returns the pool's immutable parameters.
func (p *Pool) Config() Config { return p.cfg }

// Initialized reports whether the starting price has been set.
func (p *Pool) Initialized() bool { return p.initialized }

// SqrtPriceX96 returns the current price as a Q64.96 square root.
func (p *Pool) SqrtPriceX96() *big.Int { return new(big.Int).Set(p.sqrtPriceX96) }

// CurrentTick returns the tick the current price falls in.
func (p *Pool) CurrentTick() int64 { return p.currentTick }

// Liquidity returns the in-range liquidity.
func (p *Pool) Liquidity() *big.Int { return new(big.Int).Set(p.liquidity) }

// FeeGrowthGlobals returns both fee accumulators.
func (p *Pool) FeeGrowthGlobals() (*uint256.Int, *uint256.Int) {
	return new(uint256.Int).Set(p.feeGrowthGlobal0X128), new(uint256.Int).Set(p.feeGrowthGlobal1X128)
}

// Position returns the ledger entry for one position.
func (p *Pool) Position(key position.Key) (*position.Position, bool) {
	return p.positions.Get(key)
}

// TickInfo exposes the registry entry for a tick.
func (p *Pool) TickInfo(t int64) (*tick.Info, bool) {
	return p.ticks.Get(t)
}

// MaxLiquidityPerTick returns the gross liquidity cap per tick boundary.
func (p *Pool) MaxLiquidityPerTick() *big.Int { return p.ticks.MaxLiquidityPerTick() }

// VirtualReserves derives the reserves an equivalent constant-product pool
// would hold at the current price and liquidity.
func (p *Pool) VirtualReserves() (*big.Int, *big.Int, error) {
	if !p.initialized {
		return nil, nil, ErrNotInitialized
	}
	if p.sqrtPriceX96.Sign() == 0 {
		return new(big.Int), new(big.Int), nil
	}
	reserve0 := new(big.Int).Div(new(big.Int).Lsh(p.liquidity, 96), p.sqrtPriceX96)
	reserve1 := new(big.Int).Div(new(big.Int).Mul(p.liquidity, p.sqrtPriceX96), fullmath.Q96)
	return reserve0, reserve1, nil
}

// SpotPrice returns the price of token0 in units of token1.
func (p *Pool) SpotPrice() (*big.Float, error) {
	if !p.initialized {
		return nil, ErrNotInitialized
	}
	q96f := new(big.Float).SetInt(fullmath.Q96)
	ratio := new(big.Float).Quo(new(big.Float).SetInt(p.sqrtPriceX96), q96f)
	return ratio.Mul(ratio, ratio), nil
}

// ObserveCumulatives returns the oracle cumulatives as of now - secondsAgo.
func (p *Pool) ObserveCumulatives(now, secondsAgo uint32) (int64, *uint256.Int, error) {
	if !p.initialized {
		return 0, nil, ErrNotInitialized
	}
	return p.obs.Observe(now, secondsAgo, p.currentTick, p.liquidity)
}

// Twap returns the time-weighted mean tick over the trailing window,
// rounded toward negative infinity.
func (p *Pool) Twap(now uint32, window uint32) (int64, error) {
	if window == 0 {
		return 0, oracle.ErrTargetTooOld
	}
	endCum, _, err := p.ObserveCumulatives(now, 0)
	if err != nil {
		return 0, err
	}
	startCum, _, err := p.ObserveCumulatives(now, window)
	if err != nil {
		return 0, err
	}

	delta := endCum - startCum
	meanTick := delta / int64(window)
	if delta < 0 && delta%int64(window) != 0 {
		meanTick--
	}
	return meanTick, nil
}

// GrowObservationRing raises the oracle's target cardinality.
func (p *Pool) GrowObservationRing(next int) error {
	if !p.initialized {
		return ErrNotInitialized
	}
	return p.obs.Grow(next)
}

// ObservationCardinality returns the active and target ring sizes.
func (p *Pool) ObservationCardinality() (int, int) {
	return p.obs.Cardinality(), p.obs.CardinalityNext()
}
