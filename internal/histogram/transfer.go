package histogram

import (
	"errors"

	"github.com/jmylchreest/coverhue/internal/colour"
)

// ErrMalformedTransfer is returned when a packed histogram has an odd length.
var ErrMalformedTransfer = errors.New("packed histogram must hold colour/count pairs")

// Pack flattens entries into repeated colour, count pairs. This is the form a
// histogram takes when it is handed to a worker process.
func Pack(entries []Entry) []uint32 {
	packed := make([]uint32, 0, len(entries)*2)
	for _, e := range entries {
		packed = append(packed, uint32(e.Color), e.Count)
	}
	return packed
}

// Unpack reverses Pack.
func Unpack(packed []uint32) ([]Entry, error) {
	if len(packed)%2 != 0 {
		return nil, ErrMalformedTransfer
	}
	entries := make([]Entry, len(packed)/2)
	for i := range entries {
		entries[i] = Entry{Color: colour.Color(packed[2*i]), Count: packed[2*i+1]}
	}
	return entries, nil
}
