package errors

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithContext(t *testing.T) {
	assert.NoError(t, WithContext(nil, "ignored"))

	base := os.ErrPermission
	err := WithContext(WithContext(base, "open"), "copy file")
	assert.Equal(t, "copy file: open: permission denied", err.Error())
	assert.True(t, Is(err, os.ErrPermission))
	assert.Equal(t, base, RootCause(err))
}

func TestDirectoryNotFound(t *testing.T) {
	err := WithContext(DirectoryNotFound{Path: "/src"}, "sync")

	var dne DirectoryNotFound
	assert.True(t, As(err, &dne))
	assert.Equal(t, "/src", dne.Path)
	assert.Equal(t, "Source directory does not exist: /src", dne.Error())
}

func TestGetFriendlyMessage(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expMsg string
		expOK  bool
	}{
		{
			name:   "Friendly",
			err:    NewFriendlyError("Interval must be at least %d second.", 1),
			expMsg: "Interval must be at least 1 second.",
			expOK:  true,
		},
		{
			name:   "WrappedFriendly",
			err:    WithContext(NewFriendlyError("bad config"), "parse"),
			expMsg: "bad config",
			expOK:  true,
		},
		{
			name:  "Plain",
			err:   New("plain"),
			expOK: false,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			msg, ok := GetFriendlyMessage(test.err)
			assert.Equal(t, test.expOK, ok)
			assert.Equal(t, test.expMsg, msg)
		})
	}
}
