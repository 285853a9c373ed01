package vietqr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	fields, err := Parse("000201010211" + "5802VN")
	require.NoError(t, err)
	assert.Equal(t, []Field{
		{Tag: "00", Value: "01"},
		{Tag: "01", Value: "11"},
		{Tag: "58", Value: "VN"},
	}, fields)

	fields, err = Parse("")
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestParseMalformed(t *testing.T) {
	for _, payload := range []string{
		"000",       // truncated header
		"0002A",     // value overruns payload
		"AB0201",    // non numeric tag
		"00XX01",    // non numeric length
		"000201010", // trailing partial field
	} {
		t.Run(payload, func(t *testing.T) {
			_, err := Parse(payload)
			assert.ErrorIs(t, err, ErrMalformedPayload)
		})
	}
}

func TestVerify(t *testing.T) {
	valid := "00020101021138400010A0000007270122000697042201081234567853037045802VN63045362"
	assert.NoError(t, Verify(valid))

	tampered := "00020101021138400010A0000007270122000697042201081234567953037045802VN63045362"
	assert.ErrorIs(t, Verify(tampered), ErrChecksumMismatch)

	lowercase := "00020101021238400010A0000007270122000697042201081234567853037045405500005802VN62100806Dinner630468d8"
	assert.ErrorIs(t, Verify(lowercase), ErrChecksumMismatch)

	assert.ErrorIs(t, Verify("123"), ErrMalformedPayload)
	assert.ErrorIs(t, Verify("000201015362"), ErrMalformedPayload)
}
