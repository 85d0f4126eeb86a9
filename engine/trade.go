package engine

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/tickdex/tickdex-engine-go/engine/pool"
	"github.com/tickdex/tickdex-engine-go/engine/pool/position"
	"github.com/tickdex/tickdex-engine-go/eventlog"
)

// MintParams describes a liquidity provision. Amount0Min and Amount1Min
// guard against price movement between quoting and calling; nil disables
// the check for that leg.
type MintParams struct {
	Owner     common.Address
	TokenA    common.Address
	TokenB    common.Address
	Fee       uint32
	TickLower int64
	TickUpper int64
	Liquidity *big.Int

	Amount0Min *big.Int
	Amount1Min *big.Int
}

// Mint adds liquidity to a position, pulling the owed token amounts from
// the owner into the vault. The pool mutates only after both transfers
// landed in full, so a failed call leaves no trace.
func (e *Engine) Mint(params MintParams) (*big.Int, *big.Int, error) {
	entry, err := e.lookup(params.TokenA, params.TokenB, params.Fee)
	if err != nil {
		return nil, nil, err
	}
	cfg := entry.pool.Config()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	amount0, amount1, err := entry.pool.MintAmounts(params.Owner, params.TickLower, params.TickUpper, params.Liquidity)
	if err != nil {
		e.metrics.FailedCalls.WithLabelValues("mint").Inc()
		return nil, nil, err
	}

	if params.Amount0Min != nil && amount0.Cmp(params.Amount0Min) < 0 {
		e.metrics.FailedCalls.WithLabelValues("mint").Inc()
		return nil, nil, ErrSlippage
	}
	if params.Amount1Min != nil && amount1.Cmp(params.Amount1Min) < 0 {
		e.metrics.FailedCalls.WithLabelValues("mint").Inc()
		return nil, nil, ErrSlippage
	}

	if err := e.pullIn(cfg.Token0, params.Owner, amount0); err != nil {
		e.metrics.FailedCalls.WithLabelValues("mint").Inc()
		return nil, nil, err
	}
	if err := e.pullIn(cfg.Token1, params.Owner, amount1); err != nil {
		e.refund(cfg.Token0, params.Owner, amount0)
		e.metrics.FailedCalls.WithLabelValues("mint").Inc()
		return nil, nil, err
	}

	now := e.clock()
	// MintAmounts already ran every check, so this cannot fail.
	if _, _, err := entry.pool.Mint(params.Owner, params.TickLower, params.TickUpper, params.Liquidity, now); err != nil {
		return nil, nil, err
	}

	e.metrics.Mints.Inc()
	e.emit(eventlog.Record{
		Type:      eventlog.TypeMint,
		PoolID:    entry.id.Hex(),
		Timestamp: now,
		Payload: eventlog.MintPayload{
			Owner:     params.Owner,
			TickLower: params.TickLower,
			TickUpper: params.TickUpper,
			Liquidity: new(big.Int).Set(params.Liquidity),
			Amount0:   amount0,
			Amount1:   amount1,
		},
	})
	e.logger.Info("mint",
		zap.String("pool", entry.id.Hex()),
		zap.String("owner", params.Owner.Hex()),
		zap.Int64("tick_lower", params.TickLower),
		zap.Int64("tick_upper", params.TickUpper),
		zap.String("liquidity", params.Liquidity.String()))
	return amount0, amount1, nil
}

// BurnParams describes a liquidity removal. A zero Liquidity is a poke
// that only settles fees into the owed balances.
type BurnParams struct {
	Owner     common.Address
	TokenA    common.Address
	TokenB    common.Address
	Fee       uint32
	TickLower int64
	TickUpper int64
	Liquidity *big.Int
}

// Burn removes liquidity and credits the freed amounts to the position's
// owed balances. No tokens move until Collect.
func (e *Engine) Burn(params BurnParams) (*big.Int, *big.Int, error) {
	entry, err := e.lookup(params.TokenA, params.TokenB, params.Fee)
	if err != nil {
		return nil, nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := e.clock()
	amount0, amount1, err := entry.pool.Burn(params.Owner, params.TickLower, params.TickUpper, params.Liquidity, now)
	if err != nil {
		e.metrics.FailedCalls.WithLabelValues("burn").Inc()
		return nil, nil, err
	}

	e.metrics.Burns.Inc()
	e.emit(eventlog.Record{
		Type:      eventlog.TypeBurn,
		PoolID:    entry.id.Hex(),
		Timestamp: now,
		Payload: eventlog.BurnPayload{
			Owner:     params.Owner,
			TickLower: params.TickLower,
			TickUpper: params.TickUpper,
			Liquidity: new(big.Int).Set(params.Liquidity),
			Amount0:   amount0,
			Amount1:   amount1,
		},
	})
	e.logger.Info("burn",
		zap.String("pool", entry.id.Hex()),
		zap.String("owner", params.Owner.Hex()),
		zap.String("liquidity", params.Liquidity.String()))
	return amount0, amount1, nil
}

// CollectParams asks for a payout from a position's owed balances. Nil
// requested amounts mean "everything owed" for that leg.
type CollectParams struct {
	Owner     common.Address
	Recipient common.Address
	TokenA    common.Address
	TokenB    common.Address
	Fee       uint32
	TickLower int64
	TickUpper int64

	Amount0Requested *big.Int
	Amount1Requested *big.Int
}

// Collect transfers up to the requested owed amounts from the vault to the
// recipient and decrements the position's owed balances by what was sent.
func (e *Engine) Collect(params CollectParams) (*big.Int, *big.Int, error) {
	entry, err := e.lookup(params.TokenA, params.TokenB, params.Fee)
	if err != nil {
		return nil, nil, err
	}
	cfg := entry.pool.Config()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	key := position.Key{Owner: params.Owner, TickLower: params.TickLower, TickUpper: params.TickUpper}
	pos, ok := entry.pool.Position(key)
	if !ok {
		return new(big.Int), new(big.Int), nil
	}

	amount0 := clampRequest(params.Amount0Requested, pos.TokensOwed0)
	amount1 := clampRequest(params.Amount1Requested, pos.TokensOwed1)

	// Pay out first, then decrement: the ledger only moves once the
	// tokens are irrevocably on their way.
	if err := e.payOut(cfg.Token0, params.Recipient, amount0); err != nil {
		e.metrics.FailedCalls.WithLabelValues("collect").Inc()
		return nil, nil, err
	}
	if err := e.payOut(cfg.Token1, params.Recipient, amount1); err != nil {
		e.metrics.FailedCalls.WithLabelValues("collect").Inc()
		return nil, nil, err
	}

	if _, _, err := entry.pool.Collect(params.Owner, params.TickLower, params.TickUpper, amount0, amount1); err != nil {
		return nil, nil, err
	}

	now := e.clock()
	e.metrics.Collects.Inc()
	e.emit(eventlog.Record{
		Type:      eventlog.TypeCollect,
		PoolID:    entry.id.Hex(),
		Timestamp: now,
		Payload: eventlog.CollectPayload{
			Owner:     params.Owner,
			TickLower: params.TickLower,
			TickUpper: params.TickUpper,
			Amount0:   amount0,
			Amount1:   amount1,
		},
	})
	e.logger.Info("collect",
		zap.String("pool", entry.id.Hex()),
		zap.String("owner", params.Owner.Hex()),
		zap.String("amount0", amount0.String()),
		zap.String("amount1", amount1.String()))
	return amount0, amount1, nil
}

// SwapParams describes a trade. AmountSpecified is positive for exact
// input, negative for exact output. A nil SqrtPriceLimitX96 means no
// limit beyond the representable price range.
type SwapParams struct {
	Sender    common.Address
	Recipient common.Address
	TokenA    common.Address
	TokenB    common.Address
	Fee       uint32

	ZeroForOne        bool
	AmountSpecified   *big.Int
	SqrtPriceLimitX96 *big.Int
}

// Swap executes a trade: compute the full result against current state,
// settle both token legs, then commit. The input transfer must deliver
// the full amount; tokens that skim a fee on transfer abort the swap with
// everything refunded.
func (e *Engine) Swap(params SwapParams) (*pool.SwapResult, error) {
	entry, err := e.lookup(params.TokenA, params.TokenB, params.Fee)
	if err != nil {
		return nil, err
	}
	cfg := entry.pool.Config()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := e.clock()
	res, err := entry.pool.ComputeSwap(params.ZeroForOne, params.AmountSpecified, params.SqrtPriceLimitX96, now)
	if err != nil {
		e.metrics.FailedCalls.WithLabelValues("swap").Inc()
		return nil, err
	}

	tokenIn, tokenOut := cfg.Token0, cfg.Token1
	amountIn, amountOut := res.Amount0, res.Amount1
	if !params.ZeroForOne {
		tokenIn, tokenOut = cfg.Token1, cfg.Token0
		amountIn, amountOut = res.Amount1, res.Amount0
	}
	owedOut := new(big.Int).Neg(amountOut)

	if err := e.pullIn(tokenIn, params.Sender, amountIn); err != nil {
		e.metrics.FailedCalls.WithLabelValues("swap").Inc()
		return nil, err
	}
	if err := e.payOut(tokenOut, params.Recipient, owedOut); err != nil {
		e.refund(tokenIn, params.Sender, amountIn)
		e.metrics.FailedCalls.WithLabelValues("swap").Inc()
		return nil, err
	}

	entry.pool.CommitSwap(res, now)

	direction := "zero_for_one"
	if !params.ZeroForOne {
		direction = "one_for_zero"
	}
	e.metrics.Swaps.WithLabelValues(direction).Inc()
	e.metrics.SwapSteps.Observe(float64(res.Steps))

	e.emit(eventlog.Record{
		Type:      eventlog.TypeSwap,
		PoolID:    entry.id.Hex(),
		Timestamp: now,
		Payload: eventlog.SwapPayload{
			Sender:       params.Sender,
			ZeroForOne:   params.ZeroForOne,
			Amount0:      res.Amount0,
			Amount1:      res.Amount1,
			SqrtPriceX96: res.SqrtPriceX96,
			Tick:         res.Tick,
			Liquidity:    res.Liquidity,
			FeePaid:      res.FeePaid,
		},
	})
	e.logger.Info("swap",
		zap.String("pool", entry.id.Hex()),
		zap.String("sender", params.Sender.Hex()),
		zap.Bool("zero_for_one", params.ZeroForOne),
		zap.String("amount_in", amountIn.String()),
		zap.String("amount_out", owedOut.String()),
		zap.Int("steps", res.Steps))
	return res, nil
}

// Quote simulates a swap without touching pool state. A missing pool
// yields an empty quote rather than an error, matching what an off-path
// price probe expects.
func (e *Engine) Quote(tokenA, tokenB common.Address, fee uint32, zeroForOne bool, amountSpecified, sqrtPriceLimitX96 *big.Int) (*pool.QuoteResult, error) {
	entry, err := e.lookup(tokenA, tokenB, fee)
	if err != nil {
		return emptyQuote(), nil
	}

	entry.mu.RLock()
	defer entry.mu.RUnlock()

	if !entry.pool.Initialized() {
		return emptyQuote(), nil
	}
	return entry.pool.Quote(zeroForOne, amountSpecified, sqrtPriceLimitX96, e.clock())
}

func emptyQuote() *pool.QuoteResult {
	return &pool.QuoteResult{
		AmountIn:          new(big.Int),
		AmountOut:         new(big.Int),
		FeePaid:           new(big.Int),
		SqrtPriceAfterX96: new(big.Int),
	}
}

// pullIn moves amount of tok from payer into the vault and verifies the
// vault balance grew by the full amount. Fee-on-transfer shortfalls are
// refunded and rejected.
func (e *Engine) pullIn(tok, payer common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}

	before, err := e.tokens.BalanceOf(tok, e.vault)
	if err != nil {
		return err
	}
	if err := e.tokens.TransferFrom(tok, e.vault, payer, e.vault, amount); err != nil {
		return err
	}
	after, err := e.tokens.BalanceOf(tok, e.vault)
	if err != nil {
		return err
	}

	received := new(big.Int).Sub(after, before)
	if received.Cmp(amount) < 0 {
		e.refund(tok, payer, received)
		return ErrTransferShortfall
	}
	return nil
}

// payOut moves amount of tok from the vault to the recipient.
func (e *Engine) payOut(tok, recipient common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	return e.tokens.Transfer(tok, e.vault, recipient, amount)
}

// refund sends vault funds back after an aborted call. Best effort: a
// failure here means the vault itself is broken, which only logging can
// surface.
func (e *Engine) refund(tok, to common.Address, amount *big.Int) {
	if amount == nil || amount.Sign() == 0 {
		return
	}
	if err := e.tokens.Transfer(tok, e.vault, to, amount); err != nil {
		e.logger.Error("refund failed",
			zap.String("token", tok.Hex()),
			zap.String("to", to.Hex()),
			zap.String("amount", amount.String()),
			zap.Error(err))
	}
}

func clampRequest(requested, owed *big.Int) *big.Int {
	if requested == nil || requested.Cmp(owed) > 0 {
		return new(big.Int).Set(owed)
	}
	if requested.Sign() < 0 {
		return new(big.Int)
	}
	return new(big.Int).Set(requested)
}
