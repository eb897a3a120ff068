package terminal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLine(t *testing.T) {
	got, err := ReadLine(strings.NewReader("s3cret\r\nignored\n"))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)

	got, err = ReadLine(strings.NewReader("no-newline"))
	require.NoError(t, err)
	assert.Equal(t, "no-newline", got)

	got, err = ReadLine(strings.NewReader(" spaced \n"))
	require.NoError(t, err)
	assert.Equal(t, " spaced ", got, "only the line ending is stripped")

	_, err = ReadLine(strings.NewReader(""))
	assert.ErrorContains(t, err, "empty")
}

func TestSpinWithoutTerminalRunsInline(t *testing.T) {
	ran := false
	Spin(false, "working", func() { ran = true })
	assert.True(t, ran)
}

func TestPasswordFromStdin(t *testing.T) {
	got, err := Password(strings.NewReader("pw\n"), true, false, true)
	require.NoError(t, err)
	assert.Equal(t, "pw", got)

	_, err = Password(strings.NewReader("pw\n"), false, false, false)
	assert.ErrorContains(t, err, "--password-stdin")
}
