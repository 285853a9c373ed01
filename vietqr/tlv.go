package vietqr

import (
	"fmt"
	"unicode/utf16"
)

// MaxFieldLength is the largest value length a two digit length prefix can carry.
const MaxFieldLength = 99

// Field is a single decoded tag-length-value triplet.
type Field struct {
	Tag   string `json:"tag"`
	Value string `json:"value"`
}

// Length returns the value length in UTF-16 code units, the unit used by
// both the length prefix and the checksum.
func Length(value string) int {
	return len(utf16.Encode([]rune(value)))
}

// BuildField formats tag + zero padded length + value.
func BuildField(tag, value string) (string, error) {
	if !isTag(tag) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTag, tag)
	}
	n := Length(value)
	if n > MaxFieldLength {
		return "", fmt.Errorf("%w: tag %s has %d characters", ErrFieldTooLong, tag, n)
	}
	return fmt.Sprintf("%s%02d%s", tag, n, value), nil
}

// BuildComposite concatenates inner fields and wraps them under tag.
func BuildComposite(tag string, inner ...Field) (string, error) {
	var value string
	for _, f := range inner {
		encoded, err := BuildField(f.Tag, f.Value)
		if err != nil {
			return "", err
		}
		value += encoded
	}
	return BuildField(tag, value)
}

func isTag(tag string) bool {
	return len(tag) == 2 && isDigit(tag[0]) && isDigit(tag[1])
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
