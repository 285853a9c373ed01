package vietqr

import (
	"fmt"
	"unicode/utf16"
)

const (
	crcInit       = 0xFFFF
	crcPolynomial = 0x1021
)

// CRC16 computes CRC-16/CCITT-FALSE over the UTF-16 code units of s and
// returns it as four uppercase hex digits.
func CRC16(s string) string {
	crc := uint32(crcInit)
	for _, c := range utf16.Encode([]rune(s)) {
		crc ^= uint32(c) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ crcPolynomial
			} else {
				crc <<= 1
			}
		}
	}
	crc &= 0xFFFF
	return fmt.Sprintf("%04X", crc)
}
