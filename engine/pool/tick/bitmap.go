package tick

import (
	"github.com/holiman/uint256"

	"github.com/tickdex/tickdex-engine-go/engine/pool/math/bitmath"
)

var allOnes = new(uint256.Int).Not(uint256.NewInt(0))

// position maps a compressed tick to its word index and the bit within the
// word. The arithmetic shift floors toward negative infinity so negative
// ticks land in negative words with a non-negative bit position.
func position(compressed int64) (wordPos int64, bitPos uint) {
	wordPos = compressed >> 8
	bitPos = uint(compressed & 255)
	return
}

// compress maps a tick to its bitmap coordinate, flooring toward negative
// infinity for ticks that are not spacing-aligned.
func (r *Registry) compress(tick int64) int64 {
	compressed := tick / r.spacing
	if tick < 0 && tick%r.spacing != 0 {
		compressed--
	}
	return compressed
}

// Flip toggles the initialized bit for a spacing-aligned tick.
func (r *Registry) Flip(tick int64) error {
	if tick%r.spacing != 0 {
		return ErrMisalignedTick
	}

	wordPos, bitPos := position(tick / r.spacing)
	word, ok := r.words[wordPos]
	if !ok {
		word = new(uint256.Int)
		r.words[wordPos] = word
	}

	bit := new(uint256.Int).Lsh(uint256.NewInt(1), bitPos)
	word.Xor(word, bit)
	if word.IsZero() {
		delete(r.words, wordPos)
	}
	return nil
}

// NextInitializedTickWithinOneWord scans at most one bitmap word for an
// initialized tick. With lte it searches at or below the given tick;
// otherwise strictly above. When the word holds no initialized tick the
// word boundary is returned with initialized false, so a swap can advance
// through empty space one word at a time.
func (r *Registry) NextInitializedTickWithinOneWord(tick int64, lte bool) (int64, bool) {
	compressed := r.compress(tick)

	if lte {
		wordPos, bitPos := position(compressed)
		// All bits at or below bitPos.
		mask := new(uint256.Int).Rsh(allOnes, 255-bitPos)

		if word, ok := r.words[wordPos]; ok {
			masked := new(uint256.Int).And(word, mask)
			if !masked.IsZero() {
				msb, _ := bitmath.MostSignificantBit(masked)
				return (compressed - int64(bitPos-msb)) * r.spacing, true
			}
		}
		return (compressed - int64(bitPos)) * r.spacing, false
	}

	wordPos, bitPos := position(compressed + 1)
	// All bits at or above bitPos.
	mask := new(uint256.Int).Lsh(allOnes, bitPos)

	if word, ok := r.words[wordPos]; ok {
		masked := new(uint256.Int).And(word, mask)
		if !masked.IsZero() {
			lsb, _ := bitmath.LeastSignificantBit(masked)
			return (compressed + 1 + int64(lsb-bitPos)) * r.spacing, true
		}
	}
	return (compressed + 1 + int64(255-bitPos)) * r.spacing, false
}
