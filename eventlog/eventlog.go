package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Event types emitted by the engine, one per committed state change.
const (
	TypePoolCreated = "pool_created"
	TypeInitialize  = "initialize"
	TypeMint        = "mint"
	TypeBurn        = "burn"
	TypeCollect     = "collect"
	TypeSwap        = "swap"
)

// Record is one emitted event. Payload carries the type-specific fields.
type Record struct {
	Type      string `json:"type"`
	PoolID    string `json:"pool_id"`
	Timestamp uint32 `json:"ts"`
	Payload   any    `json:"payload"`
}

// Sink receives records strictly after the state change they describe has
// committed. Implementations must tolerate being called from multiple pool
// goroutines.
type Sink interface {
	Emit(rec Record) error
}

// PoolCreatedPayload announces a new (token0, token1, fee) market.
type PoolCreatedPayload struct {
	Token0      common.Address `json:"token0"`
	Token1      common.Address `json:"token1"`
	Fee         uint32         `json:"fee"`
	TickSpacing int64          `json:"tick_spacing"`
}

type InitializePayload struct {
	SqrtPriceX96 *big.Int `json:"sqrt_price_x96"`
	Tick         int64    `json:"tick"`
}

type MintPayload struct {
	Owner     common.Address `json:"owner"`
	TickLower int64          `json:"tick_lower"`
	TickUpper int64          `json:"tick_upper"`
	Liquidity *big.Int       `json:"liquidity"`
	Amount0   *big.Int       `json:"amount0"`
	Amount1   *big.Int       `json:"amount1"`
}

type BurnPayload struct {
	Owner     common.Address `json:"owner"`
	TickLower int64          `json:"tick_lower"`
	TickUpper int64          `json:"tick_upper"`
	Liquidity *big.Int       `json:"liquidity"`
	Amount0   *big.Int       `json:"amount0"`
	Amount1   *big.Int       `json:"amount1"`
}

type CollectPayload struct {
	Owner     common.Address `json:"owner"`
	TickLower int64          `json:"tick_lower"`
	TickUpper int64          `json:"tick_upper"`
	Amount0   *big.Int       `json:"amount0"`
	Amount1   *big.Int       `json:"amount1"`
}

type SwapPayload struct {
	Sender       common.Address `json:"sender"`
	ZeroForOne   bool           `json:"zero_for_one"`
	Amount0      *big.Int       `json:"amount0"`
	Amount1      *big.Int       `json:"amount1"`
	SqrtPriceX96 *big.Int       `json:"sqrt_price_x96"`
	Tick         int64          `json:"tick"`
	Liquidity    *big.Int       `json:"liquidity"`
	FeePaid      *big.Int       `json:"fee_paid"`
}

// NopSink drops every record.
type NopSink struct{}

func (NopSink) Emit(Record) error { return nil }

// JsonlSink appends records to a JSONL file, one object per line.
type JsonlSink struct {
	path string
	mu   sync.Mutex
}

func NewJsonlSink(path string) *JsonlSink {
	return &JsonlSink{path: path}
}

func (s *JsonlSink) Emit(rec Record) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create event dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open event file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := writer.Write(line); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	if err := writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush event file: %w", err)
	}
	return nil
}

// MemorySink keeps records in order, for tests.
type MemorySink struct {
	mu      sync.Mutex
	records []Record
}

func NewMemorySink() *MemorySink { return &MemorySink{} }

func (s *MemorySink) Emit(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *MemorySink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}
