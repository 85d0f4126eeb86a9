package eventlog

import (
	"bufio"
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJsonlSinkAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events", "out.jsonl")
	sink := NewJsonlSink(path)

	require.NoError(t, sink.Emit(Record{Type: TypeInitialize, PoolID: "0xabc", Timestamp: 100,
		Payload: InitializePayload{SqrtPriceX96: big.NewInt(42), Tick: 7}}))
	require.NoError(t, sink.Emit(Record{Type: TypeSwap, PoolID: "0xabc", Timestamp: 101}))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var lines []Record
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec Record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		lines = append(lines, rec)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, lines, 2)
	assert.Equal(t, TypeInitialize, lines[0].Type)
	assert.Equal(t, TypeSwap, lines[1].Type)
	assert.Equal(t, uint32(101), lines[1].Timestamp)
}

func TestMemorySinkOrdering(t *testing.T) {
	sink := NewMemorySink()
	for i := uint32(0); i < 5; i++ {
		require.NoError(t, sink.Emit(Record{Type: TypeMint, Timestamp: i}))
	}

	recs := sink.Records()
	require.Len(t, recs, 5)
	for i, rec := range recs {
		assert.Equal(t, uint32(i), rec.Timestamp)
	}
}
