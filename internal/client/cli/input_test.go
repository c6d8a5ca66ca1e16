package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/paykeeper/internal/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted returns a prompter over input that behaves like a piped stdin.
func scripted(input string, out *bytes.Buffer) *prompter {
	p := newPrompter(strings.NewReader(input), out)
	p.isTerminal = func() bool { return false }
	return p
}

func TestPrompterLine(t *testing.T) {
	var out bytes.Buffer
	p := scripted("hello world\nlastline", &out)

	got, err := p.Line("Name?")
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name?\n> ", out.String())

	got, err = p.Line("Again?")
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = p.Line("Gone?")
	assert.Error(t, err)
}

func TestPrompterPassword(t *testing.T) {
	t.Run("piped input", func(t *testing.T) {
		var out bytes.Buffer
		pw, err := scripted(" s3cret \r\n", &out).Password("Enter password")
		require.NoError(t, err)
		assert.Equal(t, []byte(" s3cret "), pw)
	})

	t.Run("terminal", func(t *testing.T) {
		var out bytes.Buffer
		p := scripted("", &out)
		p.isTerminal = func() bool { return true }
		p.readPassword = func() ([]byte, error) { return []byte("tty"), nil }

		pw, err := p.Password("Enter password")
		require.NoError(t, err)
		assert.Equal(t, []byte("tty"), pw)
		assert.Equal(t, "Enter password: \n", out.String())
	})

	t.Run("terminal error", func(t *testing.T) {
		var out bytes.Buffer
		p := scripted("", &out)
		p.isTerminal = func() bool { return true }
		p.readPassword = func() ([]byte, error) { return nil, errors.New("boom") }

		_, err := p.Password("Enter password")
		assert.Error(t, err)
	})
}

func TestPrompterFields(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected records.Record
		wantErr  bool
	}{
		{
			name:     "typed values, stop on empty line",
			input:    "firstName=Ann\nyear=2024\nrate=12.5\npaid=false\n\n",
			expected: records.Record{"firstName": "Ann", "year": int64(2024), "rate": 12.5, "paid": false},
		},
		{
			name:     "Windows CRLF",
			input:    "a=1\r\nb=x\r\n\r\n",
			expected: records.Record{"a": int64(1), "b": "x"},
		},
		{
			name:     "quoted string keeps digits",
			input:    "code=\"007\"\n\n",
			expected: records.Record{"code": "007"},
		},
		{
			name:     "value with spaces and equals",
			input:    " note = a = b \n\n",
			expected: records.Record{"note": "a = b"},
		},
		{
			name:     "immediate blank line gives empty record",
			input:    "\n",
			expected: records.Record{},
		},
		{
			name:     "EOF without trailing blank line",
			input:    "a=1\nb=2",
			expected: records.Record{"a": int64(1), "b": int64(2)},
		},
		{
			name:    "missing equals",
			input:   "oops\n\n",
			wantErr: true,
		},
		{
			name:    "empty name",
			input:   "=1\n\n",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := scripted(tc.input, &out).Fields("Fields")
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrBadField)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}
