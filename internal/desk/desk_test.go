package desk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaz8081/deskctl/internal/ble/bletest"
	"github.com/chaz8081/deskctl/internal/desk/protocol"
)

func TestMotorPrimitives(t *testing.T) {
	conn, control, _ := newDeskConn(8000)
	d := mustNewDesk(t, conn, newFakeClock())

	require.NoError(t, d.Raise())
	require.NoError(t, d.Lower())
	require.NoError(t, d.Halt())

	assert.Equal(t, [][]byte{{0x47, 0x00}, {0x46, 0x00}, {0xFF, 0x00}}, control.Writes())
}

func TestHaltTwiceIsIdempotent(t *testing.T) {
	conn, control, _ := newDeskConn(8000)
	d := mustNewDesk(t, conn, newFakeClock())

	assert.NoError(t, d.Halt())
	assert.NoError(t, d.Halt())

	writes := control.Writes()
	require.Len(t, writes, 2)
	assert.Equal(t, writes[0], writes[1])
	assert.Equal(t, []byte{0xFF, 0x00}, writes[0])
}

func TestMotorWriteError(t *testing.T) {
	conn, control, _ := newDeskConn(8000)
	d := mustNewDesk(t, conn, newFakeClock())
	control.OnWrite(func([]byte) error { return bletest.ErrInjected })

	assert.ErrorIs(t, d.Raise(), bletest.ErrInjected)
}

func TestHeight(t *testing.T) {
	conn, _, position := newDeskConn(8000)
	d := mustNewDesk(t, conn, newFakeClock())

	position.SetValue([]byte{0x51, 0x04, 0x00, 0x00})
	h, err := d.Height()
	require.NoError(t, err)
	assert.Equal(t, protocol.Height(7305), h)
	assert.Equal(t, 1, position.Reads())
}

func TestHeightReadError(t *testing.T) {
	conn, _, position := newDeskConn(8000)
	d := mustNewDesk(t, conn, newFakeClock())
	position.OnRead(func() ([]byte, error) { return nil, bletest.ErrInjected })

	_, err := d.Height()
	assert.ErrorIs(t, err, ErrCannotReadPosition)
	assert.ErrorIs(t, err, bletest.ErrInjected, "transport cause is preserved")
}

func TestHeightShortValue(t *testing.T) {
	conn, _, position := newDeskConn(8000)
	d := mustNewDesk(t, conn, newFakeClock())
	position.SetValue([]byte{0x01})

	_, err := d.Height()
	assert.ErrorIs(t, err, ErrCannotReadPosition)
	assert.ErrorIs(t, err, protocol.ErrShortBuffer)
}

func TestNewRequiresResolvedAttributes(t *testing.T) {
	conn, control, _ := newDeskConn(8000)

	_, err := New(conn, nil, Options{})
	assert.ErrorIs(t, err, ErrCharacteristicsNotFound)

	_, err = New(conn, &Attributes{Control: control}, Options{})
	assert.ErrorIs(t, err, ErrCharacteristicsNotFound)

	_, err = New(nil, &Attributes{}, Options{})
	assert.Error(t, err)
}

func TestDeskAddress(t *testing.T) {
	conn, _, _ := newDeskConn(8000)
	d := mustNewDesk(t, conn, nil)

	assert.Equal(t, testAddr, d.Address())
	conn.Addr = "00:00:00:00:00:00"
	assert.Equal(t, testAddr, d.Address(), "address is captured at construction")
}

func TestLastNotifiedHeight(t *testing.T) {
	conn, _, position := newDeskConn(8000)
	attrs, err := Resolve(conn, ResolveOptions{Notify: true})
	require.NoError(t, err)
	d, err := New(conn, attrs, Options{})
	require.NoError(t, err)

	_, ok := d.LastNotifiedHeight()
	assert.False(t, ok, "no notification yet")

	position.Notify([]byte{0x08, 0x08, 0x00, 0x00})
	h, ok := d.LastNotifiedHeight()
	assert.True(t, ok)
	assert.Equal(t, protocol.Height(8256), h)

	position.Notify([]byte{0x01})
	h, _ = d.LastNotifiedHeight()
	assert.Equal(t, protocol.Height(8256), h, "malformed notifications are ignored")
}

func TestLastNotifiedHeightWithoutSubscription(t *testing.T) {
	conn, _, _ := newDeskConn(8000)
	d := mustNewDesk(t, conn, nil)

	_, ok := d.LastNotifiedHeight()
	assert.False(t, ok)
}

func TestClose(t *testing.T) {
	conn, _, _ := newDeskConn(8000)
	d := mustNewDesk(t, conn, nil)

	require.NoError(t, d.Close())
	assert.True(t, conn.Disconnected())
}
