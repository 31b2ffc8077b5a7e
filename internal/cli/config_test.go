package cli

import (
	"flag"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		args    []string
		want    *Config
		wantErr bool
	}{
		{
			name: "defaults",
			args: nil,
			want: &Config{Server: DefaultServer, Timeout: 30 * time.Second},
		},
		{
			name: "env server",
			env:  "http://hr.internal:8080",
			want: &Config{Server: "http://hr.internal:8080", Timeout: 30 * time.Second},
		},
		{
			name: "flags win over env",
			env:  "http://hr.internal:8080",
			args: []string{"-server", "http://127.0.0.1:4000", "-timeout", "5s", "-retries", "-1", "-debug"},
			want: &Config{Server: "http://127.0.0.1:4000", Timeout: 5 * time.Second, Retries: -1, Debug: true},
		},
		{name: "bad duration", args: []string{"-timeout", "soon"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(serverEnv, tt.env)
			got, err := ParseFlags(tt.args, io.Discard)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFlagsHelp(t *testing.T) {
	_, err := ParseFlags([]string{"-h"}, io.Discard)
	assert.ErrorIs(t, err, flag.ErrHelp)
}
