package vector

import "math/bits"

// NullMask efficiently tracks null values using bitmaps. A set bit marks the
// position as null.
type NullMask struct {
	Bits      []uint64
	Length    int
	NullCount int
}

// NewNullMask creates a new null mask with the specified capacity
func NewNullMask(capacity int) *NullMask {
	numWords := (capacity + 63) / 64
	return &NullMask{
		Bits:   make([]uint64, numWords),
		Length: capacity,
	}
}

// IsNull checks if a bit is set (indicating null)
func (nm *NullMask) IsNull(index int) bool {
	if nm == nil || index >= nm.Length {
		return false
	}
	return (nm.Bits[index/64] & (1 << (index % 64))) != 0
}

// SetNull sets a bit to indicate null
func (nm *NullMask) SetNull(index int) {
	if index >= nm.Length {
		return
	}
	wordIndex := index / 64
	mask := uint64(1) << (index % 64)
	if nm.Bits[wordIndex]&mask == 0 {
		nm.Bits[wordIndex] |= mask
		nm.NullCount++
	}
}

// SetNotNull clears a bit to indicate not null
func (nm *NullMask) SetNotNull(index int) {
	if index >= nm.Length {
		return
	}
	wordIndex := index / 64
	mask := uint64(1) << (index % 64)
	if nm.Bits[wordIndex]&mask != 0 {
		nm.Bits[wordIndex] &^= mask
		nm.NullCount--
	}
}

// HasNulls returns true if there are any null values
func (nm *NullMask) HasNulls() bool {
	return nm != nil && nm.NullCount > 0
}

// CountNulls counts set bits in the half-open range [from, to)
func (nm *NullMask) CountNulls(from, to int) int {
	if nm == nil {
		return 0
	}
	if to > nm.Length {
		to = nm.Length
	}
	count := 0
	for i := from; i < to; {
		if i%64 == 0 && i+64 <= to {
			count += bits.OnesCount64(nm.Bits[i/64])
			i += 64
			continue
		}
		if nm.IsNull(i) {
			count++
		}
		i++
	}
	return count
}

// Resize grows or shrinks the mask to the given length. Newly exposed
// positions are not null.
func (nm *NullMask) Resize(length int) {
	numWords := (length + 63) / 64
	if numWords > len(nm.Bits) {
		grown := make([]uint64, numWords)
		copy(grown, nm.Bits)
		nm.Bits = grown
	}
	if length < nm.Length {
		// Clear truncated tail so counts stay accurate.
		for i := length; i < nm.Length; i++ {
			nm.SetNotNull(i)
		}
	}
	nm.Length = length
}

// ClearAll marks every position as not null
func (nm *NullMask) ClearAll() {
	for i := range nm.Bits {
		nm.Bits[i] = 0
	}
	nm.NullCount = 0
}

// Clone returns a deep copy of the mask
func (nm *NullMask) Clone() *NullMask {
	if nm == nil {
		return nil
	}
	out := &NullMask{
		Bits:      make([]uint64, len(nm.Bits)),
		Length:    nm.Length,
		NullCount: nm.NullCount,
	}
	copy(out.Bits, nm.Bits)
	return out
}

// Slice returns a new mask holding the range [from, from+length) of this mask
func (nm *NullMask) Slice(from, length int) *NullMask {
	out := NewNullMask(length)
	for i := 0; i < length; i++ {
		if nm.IsNull(from + i) {
			out.SetNull(i)
		}
	}
	return out
}

// Union sets every position that is null in other
func (nm *NullMask) Union(other *NullMask) {
	if other == nil {
		return
	}
	n := other.Length
	if n > nm.Length {
		n = nm.Length
	}
	for i := 0; i < n; i++ {
		if other.IsNull(i) {
			nm.SetNull(i)
		}
	}
}
