package qr

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_JoinsInOrder(t *testing.T) {
	p, err := Encode([]string{"VC-1", "ABC-123", "Toyota Corolla", "2022"})
	require.NoError(t, err)
	assert.Equal(t, Payload("VC-1|ABC-123|Toyota Corolla|2022"), p)
	assert.Equal(t, []string{"VC-1", "ABC-123", "Toyota Corolla", "2022"}, Decode(p))
}

func TestEncode_PreservesUnicode(t *testing.T) {
	fields := []string{"TT-2025-000001", "ঢাকা মেট্রো-গ-১২৩৪৫৬", "৳5000", "31/12/2025"}
	p, err := Encode(fields)
	require.NoError(t, err)
	assert.Equal(t, fields, Decode(p))
}

func TestEncode_RejectsSeparatorInField(t *testing.T) {
	p, err := Encode([]string{"VC-000001", "ABC|123", "Civic", "2021"})
	require.Error(t, err)
	assert.Empty(t, p)
	assert.True(t, errors.Is(err, ErrEncodingHazard))

	var hazard *HazardError
	require.True(t, errors.As(err, &hazard))
	assert.Equal(t, 1, hazard.Index)
	assert.Equal(t, "ABC|123", hazard.Field)
}

func TestDecode_Empty(t *testing.T) {
	assert.Nil(t, Decode(""))
}

func TestRequestURL(t *testing.T) {
	e := NewEndpoint("")
	got, err := e.RequestURL("VC-000001|ABC-123|Toyota Corolla|2022", 200)
	require.NoError(t, err)
	assert.Equal(t,
		"https://api.qrserver.com/v1/create-qr-code/?size=200x200&data=VC-000001%7CABC-123%7CToyota%20Corolla%7C2022",
		got)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "VC-000001|ABC-123|Toyota Corolla|2022", u.Query().Get("data"))
	assert.Equal(t, "200x200", u.Query().Get("size"))
}

func TestRequestURL_EscapesReservedCharacters(t *testing.T) {
	got, err := NewEndpoint("https://qr.example.test/render").RequestURL("a&b=c+d", 64)
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "a&b=c+d", u.Query().Get("data"))
	assert.Equal(t, "64x64", u.Query().Get("size"))
}

func TestRequestURL_RejectsBadInput(t *testing.T) {
	_, err := NewEndpoint("").RequestURL("x", 0)
	require.Error(t, err)

	_, err = Endpoint{BaseURL: "/relative/path"}.RequestURL("x", 100)
	require.Error(t, err)
}

func TestRequestURL_MatchesEncodeURIComponent(t *testing.T) {
	got, err := NewEndpoint("").RequestURL("DL-1|O'Brien (Jr.)!*~|a+b %", 100)
	require.NoError(t, err)
	assert.Equal(t,
		"https://api.qrserver.com/v1/create-qr-code/?size=100x100&data=DL-1%7CO'Brien%20(Jr.)!*~%7Ca%2Bb%20%25",
		got)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "DL-1|O'Brien (Jr.)!*~|a+b %", u.Query().Get("data"))
}
