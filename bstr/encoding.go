package bstr

import (
	"encoding/binary"
	"unicode/utf16"

	"golang.org/x/text/encoding/unicode"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// Encode converts UTF-8 text to UTF-16 code units without a terminator.
// Invalid UTF-8 is replaced with U+FFFD.
func Encode(s string) []uint16 {
	b, err := utf16le.NewEncoder().String(s)
	if err != nil {
		return utf16.Encode([]rune(s))
	}
	return unitsFromBytes([]byte(b))
}

// Decode converts UTF-16 code units to UTF-8.
// Unpaired surrogates are replaced with U+FFFD.
func Decode(units []uint16) string {
	b, err := utf16le.NewDecoder().Bytes(bytesFromUnits(units))
	if err != nil {
		return string(utf16.Decode(units))
	}
	return string(b)
}

func bytesFromUnits(units []uint16) []byte {
	b := make([]byte, 2*len(units))
	for i, u := range units {
		binary.LittleEndian.PutUint16(b[2*i:], u)
	}
	return b
}

func unitsFromBytes(b []byte) []uint16 {
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return units
}
