package fxp

import (
	"encoding/binary"
	"fmt"
	"net"
)

// deserializeAddress is the inverse of SerializeAddress.
func deserializeAddress(b []byte) (*net.UDPAddr, error) {
	if len(b) != AddressSize {
		return nil, fmt.Errorf("fxp: address is %d bytes, want %d", len(b), AddressSize)
	}
	return &net.UDPAddr{IP: net.IPv4(b[0], b[1], b[2], b[3]), Port: int(binary.BigEndian.Uint16(b[4:]))}, nil
}
