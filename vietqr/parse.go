package vietqr

import (
	"fmt"
	"strconv"
	"unicode/utf16"
)

// Parse decodes a TLV sequence into fields. Lengths are counted in UTF-16
// code units, matching BuildField.
func Parse(payload string) ([]Field, error) {
	units := utf16.Encode([]rune(payload))
	var fields []Field
	for pos := 0; pos < len(units); {
		if pos+4 > len(units) {
			return nil, fmt.Errorf("%w: truncated header at %d", ErrMalformedPayload, pos)
		}
		tag := string(utf16.Decode(units[pos : pos+2]))
		if !isTag(tag) {
			return nil, fmt.Errorf("%w: bad tag %q at %d", ErrMalformedPayload, tag, pos)
		}
		n, err := strconv.Atoi(string(utf16.Decode(units[pos+2 : pos+4])))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: bad length for tag %s", ErrMalformedPayload, tag)
		}
		start := pos + 4
		if start+n > len(units) {
			return nil, fmt.Errorf("%w: tag %s overruns payload", ErrMalformedPayload, tag)
		}
		fields = append(fields, Field{Tag: tag, Value: string(utf16.Decode(units[start : start+n]))})
		pos = start + n
	}
	return fields, nil
}

// Lookup returns the value of the first field with tag.
func Lookup(fields []Field, tag string) (string, bool) {
	for _, f := range fields {
		if f.Tag == tag {
			return f.Value, true
		}
	}
	return "", false
}

// Verify recomputes the checksum over everything up to and including "6304"
// and compares it with the trailing four characters.
func Verify(payload string) error {
	units := utf16.Encode([]rune(payload))
	if len(units) < 8 {
		return fmt.Errorf("%w: too short", ErrMalformedPayload)
	}
	body := string(utf16.Decode(units[:len(units)-4]))
	sum := string(utf16.Decode(units[len(units)-4:]))
	if string(utf16.Decode(units[len(units)-8:len(units)-4])) != crcPrefix {
		return fmt.Errorf("%w: missing %s checksum header", ErrMalformedPayload, crcPrefix)
	}
	if want := CRC16(body); want != sum {
		return fmt.Errorf("%w: got %s, want %s", ErrChecksumMismatch, sum, want)
	}
	return nil
}
