package ruuvi

import "encoding/binary"

func beUint16(b []byte) uint16 {
	return binary.BigEndian.Uint16(b)
}

func beInt16(b []byte) int16 {
	return int16(binary.BigEndian.Uint16(b))
}
