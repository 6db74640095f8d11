// internal/store/layout.go
package store

// Persistent layout. Protocol-locked; changing any of these breaks existing images.
//
//	0   version (16 bytes, 1 used)
//	16  default pin states (32 bytes, bit j of byte i => pin i*8+j)
//	48  routine count (1 byte)
//	49  routine table, 3 bytes per routine: pin, length (big-endian)
//	49+3N routine bodies, concatenated in index order
const (
	versionOffset = 0
	versionSize   = 16

	pinStatesOffset = versionOffset + versionSize
	PinStateBytes   = 32

	countOffset = pinStatesOffset + PinStateBytes
	countSize   = 1

	tableOffset    = countOffset + countSize
	tableEntrySize = 3
)

// FormatVersion is the only image format this build reads and writes.
const FormatVersion byte = 0x01

// MaxRoutines is the fixed capacity of the routine table.
const MaxRoutines = 16

// MaxPins is the number of pins addressable by the default pin state bitmap.
const MaxPins = PinStateBytes * 8

// bodyBase returns the address of the first body byte for a table of count entries.
func bodyBase(count int) int {
	return tableOffset + count*tableEntrySize
}

// Footprint returns the number of bytes an image needs to hold routines
// with the given body lengths.
func Footprint(lengths ...int) int {
	n := bodyBase(len(lengths))
	for _, l := range lengths {
		n += l
	}
	return n
}
