package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubPassword(t *testing.T, pw string, err error) {
	t.Helper()
	orig := readPassword
	readPassword = func(int) ([]byte, error) { return []byte(pw), err }
	t.Cleanup(func() { readPassword = orig })
}

func TestPrompt(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "trims line", input: "  hello \n", want: "hello"},
		{name: "partial line at EOF", input: "tail", want: "tail"},
		{name: "empty input", input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := prompt(bufio.NewReader(strings.NewReader(tt.input)), &out, "Name")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Name: ", out.String())
		})
	}
}

func TestPromptRequiredRejectsBlank(t *testing.T) {
	var out bytes.Buffer
	_, err := promptRequired(bufio.NewReader(strings.NewReader("\n")), &out, "Email")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestPromptID(t *testing.T) {
	var out bytes.Buffer
	id, err := promptID(bufio.NewReader(strings.NewReader("42\n")), &out, "Id")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"0\n", "abc\n", "-1\n"} {
		_, err := promptID(bufio.NewReader(strings.NewReader(bad)), &out, "Id")
		assert.Error(t, err, bad)
	}
}

func TestPromptPassword(t *testing.T) {
	stubPassword(t, "secret123", nil)
	var out bytes.Buffer
	pw, err := promptPassword(&out, "Password")
	require.NoError(t, err)
	assert.Equal(t, "secret123", pw)
	assert.Equal(t, "Password: \n", out.String())

	stubPassword(t, "", errors.New("not a terminal"))
	_, err = promptPassword(&out, "Password")
	assert.EqualError(t, err, "not a terminal")
}
