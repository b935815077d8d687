package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeCommand(t *testing.T) {
	tests := []struct {
		cmd  Command
		want []byte
	}{
		{Raise, []byte{0x47, 0x00}},
		{Lower, []byte{0x46, 0x00}},
		{Halt, []byte{0xFF, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.cmd.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, EncodeCommand(tt.cmd))
		})
	}
}

func TestEncodeCommandReturnsFreshSlice(t *testing.T) {
	a := EncodeCommand(Halt)
	a[0] = 0x00
	assert.Equal(t, []byte{0xFF, 0x00}, EncodeCommand(Halt))
}
