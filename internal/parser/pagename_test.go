package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageName(t *testing.T) {
	cases := []struct {
		name string
		want PageRef
	}{
		{"0-0.png", PageRef{0, 0}},
		{"3-12.jpg", PageRef{3, 12}},
		{"007-010.webp", PageRef{7, 10}},
		{"1-2", PageRef{1, 2}},
		{"1-2.tar.gz", PageRef{1, 2}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := ParsePageName(c.name)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestParsePageNameErrors(t *testing.T) {
	cases := []struct {
		name  string
		kind  ErrorKind
		token int
		value string
	}{
		{"", KindNoFileName, 0, ""},
		{"\xff\xfe-1.png", KindNotText, 0, ""},
		{".hidden", KindNoStem, 0, ""},
		{"12.png", KindMissingToken, 1, ""},
		{"-4.png", KindMissingToken, 0, ""},
		{"4-.png", KindMissingToken, 1, ""},
		{"cover-1.png", KindBadToken, 0, "cover"},
		{"1-two.png", KindBadToken, 1, "two"},
		{"1-2-3.png", KindBadToken, 1, "2-3"},
		{"-1-2.png", KindMissingToken, 0, ""},
		{"+1-2.png", KindBadToken, 0, "+1"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ParsePageName(c.name)
			var nameErr *NameError
			require.True(t, errors.As(err, &nameErr), "want *NameError, got %v", err)
			assert.Equal(t, c.kind, nameErr.Kind)
			assert.Equal(t, c.token, nameErr.Token)
			assert.Equal(t, c.value, nameErr.Value)
			assert.Equal(t, c.name, nameErr.Name)
		})
	}
}

func TestParsePageNameTooLarge(t *testing.T) {
	_, err := ParsePageName("0-99999999.png")
	assert.ErrorIs(t, err, ErrIndexTooLarge)

	_, err = ParsePageName("99999999999999999999999-0.png")
	var nameErr *NameError
	require.True(t, errors.As(err, &nameErr))
	assert.Equal(t, KindBadToken, nameErr.Kind)
}

func TestIgnored(t *testing.T) {
	assert.True(t, Ignored("data.json"))
	assert.True(t, Ignored("0-1.png.tmp"))
	assert.True(t, Ignored("data.json.tmp"))
	assert.True(t, Ignored("weird.tmp"))
	assert.False(t, Ignored("0-1.png"))
	assert.False(t, Ignored("tmp"))
	assert.False(t, Ignored("0-1.tmpx"))
	assert.False(t, Ignored("Data.json"))
}
