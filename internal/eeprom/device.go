// internal/eeprom/device.go
package eeprom

// Erased is the value of a cell that has never been written or was erased.
const Erased byte = 0xFF

// Device is a fixed-size, byte-addressed non-volatile memory.
// Out-of-range reads return Erased; out-of-range writes are ignored.
type Device interface {
	Len() int
	Read(addr int) byte
	Write(addr int, v byte)
}

// Erase sets every cell of d to Erased.
func Erase(d Device) {
	for i := 0; i < d.Len(); i++ {
		d.Write(i, Erased)
	}
}
