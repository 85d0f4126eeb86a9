package engine

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/tickdex/tickdex-engine-go/engine/pool"
	"github.com/tickdex/tickdex-engine-go/eventlog"
	"github.com/tickdex/tickdex-engine-go/metrics"
	"github.com/tickdex/tickdex-engine-go/token"
)

// maxTickSpacing bounds spacing for newly enabled fee tiers.
const maxTickSpacing = 16384

// Config wires the engine's collaborators. Tokens is required; everything
// else has a working default.
type Config struct {
	// Owner may enable new fee tiers.
	Owner common.Address
	// Vault is the account that custodies pool funds at the token
	// service.
	Vault common.Address

	Tokens token.Service
	Sink   eventlog.Sink
	Logger *zap.Logger
	// Registerer receives the engine's metrics; nil disables
	// registration.
	Registerer prometheus.Registerer
	// Clock returns the current unix time. Swaps and oracle writes use
	// it; tests inject their own.
	Clock func() uint32
}

type poolEntry struct {
	mu   sync.RWMutex
	pool *pool.Pool
	id   PoolID
}

// Engine manages every pool and fronts all trading and liquidity calls.
// Mutating calls serialize per pool; read-only calls run concurrently.
type Engine struct {
	owner common.Address
	vault common.Address

	tokens  token.Service
	sink    eventlog.Sink
	logger  *zap.Logger
	metrics *metrics.Metrics
	clock   func() uint32

	mu       sync.RWMutex
	pools    map[PoolKey]*poolEntry
	feeTiers map[uint32]int64
}

// New builds an engine with the standard fee tiers enabled
// (500, 3000, 10000 ppm).
func New(cfg Config) (*Engine, error) {
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("engine config: token service is required")
	}
	if cfg.Sink == nil {
		cfg.Sink = eventlog.NopSink{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = func() uint32 { return uint32(time.Now().Unix()) }
	}

	return &Engine{
		owner:   cfg.Owner,
		vault:   cfg.Vault,
		tokens:  cfg.Tokens,
		sink:    cfg.Sink,
		logger:  cfg.Logger,
		metrics: metrics.New(cfg.Registerer),
		clock:   cfg.Clock,
		pools:   make(map[PoolKey]*poolEntry),
		feeTiers: map[uint32]int64{
			500:   10,
			3000:  60,
			10000: 200,
		},
	}, nil
}

// EnableFeeAmount adds a fee tier. Owner only; a tier cannot change once
// enabled.
func (e *Engine) EnableFeeAmount(caller common.Address, fee uint32, tickSpacing int64) error {
	if caller != e.owner {
		return ErrNotOwner
	}
	if fee >= 1_000_000 {
		return ErrInvalidFee
	}
	if tickSpacing <= 0 || tickSpacing >= maxTickSpacing {
		return ErrInvalidSpacing
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.feeTiers[fee]; ok {
		return ErrFeeEnabled
	}
	e.feeTiers[fee] = tickSpacing

	e.logger.Info("fee tier enabled",
		zap.Uint32("fee", fee),
		zap.Int64("tick_spacing", tickSpacing))
	return nil
}

// FeeTierSpacing returns the spacing for an enabled fee tier.
func (e *Engine) FeeTierSpacing(fee uint32) (int64, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	spacing, ok := e.feeTiers[fee]
	return spacing, ok
}

// CreatePool registers a new market for an unordered token pair and fee
// tier. The pool still needs Initialize before trading.
func (e *Engine) CreatePool(tokenA, tokenB common.Address, fee uint32) (PoolID, error) {
	if tokenA == tokenB {
		return PoolID{}, ErrIdenticalTokens
	}
	token0, token1 := SortTokens(tokenA, tokenB)
	key := PoolKey{Token0: token0, Token1: token1, Fee: fee}

	e.mu.Lock()
	defer e.mu.Unlock()

	spacing, ok := e.feeTiers[fee]
	if !ok {
		return PoolID{}, ErrFeeNotEnabled
	}
	if _, ok := e.pools[key]; ok {
		return PoolID{}, ErrPoolExists
	}

	p, err := pool.New(pool.Config{
		Token0:      token0,
		Token1:      token1,
		Fee:         fee,
		TickSpacing: spacing,
	})
	if err != nil {
		return PoolID{}, err
	}

	id := ComputePoolID(key)
	e.pools[key] = &poolEntry{pool: p, id: id}
	e.metrics.PoolsCreated.Inc()

	e.emit(eventlog.Record{
		Type:      eventlog.TypePoolCreated,
		PoolID:    id.Hex(),
		Timestamp: e.clock(),
		Payload: eventlog.PoolCreatedPayload{
			Token0:      token0,
			Token1:      token1,
			Fee:         fee,
			TickSpacing: spacing,
		},
	})
	e.logger.Info("pool created",
		zap.String("pool", id.Hex()),
		zap.String("token0", token0.Hex()),
		zap.String("token1", token1.Hex()),
		zap.Uint32("fee", fee))
	return id, nil
}

// Initialize sets a pool's starting price.
func (e *Engine) Initialize(tokenA, tokenB common.Address, fee uint32, sqrtPriceX96 *big.Int) (int64, error) {
	entry, err := e.lookup(tokenA, tokenB, fee)
	if err != nil {
		return 0, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := e.clock()
	startTick, err := entry.pool.Initialize(sqrtPriceX96, now)
	if err != nil {
		return 0, err
	}

	e.emit(eventlog.Record{
		Type:      eventlog.TypeInitialize,
		PoolID:    entry.id.Hex(),
		Timestamp: now,
		Payload: eventlog.InitializePayload{
			SqrtPriceX96: new(big.Int).Set(sqrtPriceX96),
			Tick:         startTick,
		},
	})
	e.logger.Info("pool initialized",
		zap.String("pool", entry.id.Hex()),
		zap.Int64("tick", startTick))
	return startTick, nil
}

// Pools lists every registered pool key.
func (e *Engine) Pools() []PoolKey {
	e.mu.RLock()
	defer e.mu.RUnlock()
	keys := make([]PoolKey, 0, len(e.pools))
	for key := range e.pools {
		keys = append(keys, key)
	}
	return keys
}

// State is a read-only snapshot of a pool's top-level fields.
type State struct {
	ID                   PoolID
	SqrtPriceX96         *big.Int
	Tick                 int64
	Liquidity            *big.Int
	FeeGrowthGlobal0X128 *uint256.Int
	FeeGrowthGlobal1X128 *uint256.Int
	Initialized          bool
}

// PoolState snapshots a pool under its read lock.
func (e *Engine) PoolState(tokenA, tokenB common.Address, fee uint32) (*State, error) {
	entry, err := e.lookup(tokenA, tokenB, fee)
	if err != nil {
		return nil, err
	}

	entry.mu.RLock()
	defer entry.mu.RUnlock()

	fg0, fg1 := entry.pool.FeeGrowthGlobals()
	return &State{
		ID:                   entry.id,
		SqrtPriceX96:         entry.pool.SqrtPriceX96(),
		Tick:                 entry.pool.CurrentTick(),
		Liquidity:            entry.pool.Liquidity(),
		FeeGrowthGlobal0X128: fg0,
		FeeGrowthGlobal1X128: fg1,
		Initialized:          entry.pool.Initialized(),
	}, nil
}

// VirtualReserves returns the pool's equivalent constant-product reserves.
func (e *Engine) VirtualReserves(tokenA, tokenB common.Address, fee uint32) (*big.Int, *big.Int, error) {
	entry, err := e.lookup(tokenA, tokenB, fee)
	if err != nil {
		return nil, nil, err
	}
	entry.mu.RLock()
	defer entry.mu.RUnlock()
	return entry.pool.VirtualReserves()
}

// SpotPrice returns the current price of token0 in units of token1.
func (e *Engine) SpotPrice(tokenA, tokenB common.Address, fee uint32) (*big.Float, error) {
	entry, err := e.lookup(tokenA, tokenB, fee)
	if err != nil {
		return nil, err
	}
	entry.mu.RLock()
	defer entry.mu.RUnlock()
	return entry.pool.SpotPrice()
}

// Twap returns the time-weighted mean tick over the trailing window.
func (e *Engine) Twap(tokenA, tokenB common.Address, fee uint32, window uint32) (int64, error) {
	entry, err := e.lookup(tokenA, tokenB, fee)
	if err != nil {
		return 0, err
	}
	entry.mu.RLock()
	defer entry.mu.RUnlock()
	return entry.pool.Twap(e.clock(), window)
}

// PriceDeviated reports whether the current tick strays from the trailing
// TWAP by more than maxDeviation ticks. Callers use it as a manipulation
// guard before trusting the spot price.
func (e *Engine) PriceDeviated(tokenA, tokenB common.Address, fee uint32, window uint32, maxDeviation int64) (bool, error) {
	entry, err := e.lookup(tokenA, tokenB, fee)
	if err != nil {
		return false, err
	}

	entry.mu.RLock()
	defer entry.mu.RUnlock()

	twap, err := entry.pool.Twap(e.clock(), window)
	if err != nil {
		return false, err
	}
	deviation := entry.pool.CurrentTick() - twap
	if deviation < 0 {
		deviation = -deviation
	}
	return deviation > maxDeviation, nil
}

// IncreaseObservationCardinality grows a pool's oracle ring.
func (e *Engine) IncreaseObservationCardinality(tokenA, tokenB common.Address, fee uint32, next int) error {
	entry, err := e.lookup(tokenA, tokenB, fee)
	if err != nil {
		return err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.pool.GrowObservationRing(next)
}

func (e *Engine) lookup(tokenA, tokenB common.Address, fee uint32) (*poolEntry, error) {
	token0, token1 := SortTokens(tokenA, tokenB)
	key := PoolKey{Token0: token0, Token1: token1, Fee: fee}

	e.mu.RLock()
	defer e.mu.RUnlock()
	entry, ok := e.pools[key]
	if !ok {
		return nil, ErrPoolNotFound
	}
	return entry, nil
}

func (e *Engine) emit(rec eventlog.Record) {
	if err := e.sink.Emit(rec); err != nil {
		e.logger.Warn("event emit failed", zap.String("type", rec.Type), zap.Error(err))
	}
}
