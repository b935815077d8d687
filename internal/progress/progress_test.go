package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Progress(0, "100.0 cm")
	p.Progress(300, "97.0 cm")
	p.Progress(0, "97.0 cm")
	p.Progress(250, "94.5 cm")

	assert.Equal(t, "  100.0 cm (moved 0.0 cm)\n  97.0 cm (moved 3.0 cm)\n  94.5 cm (moved 5.5 cm)\n", buf.String())
	assert.Equal(t, 550, p.Covered())
}
