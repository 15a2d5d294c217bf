package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalVersions(t *testing.T) {
	l2 := NewLocal("l2", IntType)
	assert.Equal(t, "l2", l2.String())

	v4 := l2.WithVersion(4)
	assert.Equal(t, "l2#4", v4.String())
	assert.Equal(t, l2, v4.Base())
	assert.NotEqual(t, l2, v4)

	// version zero is still a version
	assert.Equal(t, "l2#0", l2.WithVersion(0).String())
	assert.NotEqual(t, l2, l2.WithVersion(0))
}

func TestNewLocalDefaultsType(t *testing.T) {
	assert.Equal(t, UnknownType, NewLocal("x", "").Type)
	assert.Equal(t, "unknown", Type("").String())
}

func TestParseLocalName(t *testing.T) {
	tests := []struct {
		input     string
		name      string
		version   int
		versioned bool
		wantErr   bool
	}{
		{input: "l2", name: "l2"},
		{input: "$stack3", name: "$stack3"},
		{input: "l2#10", name: "l2", version: 10, versioned: true},
		{input: "l2#x", wantErr: true},
		{input: "#3", wantErr: true},
		{input: "l2#-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			name, version, versioned, err := ParseLocalName(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.version, version)
			assert.Equal(t, tt.versioned, versioned)
		})
	}
}
