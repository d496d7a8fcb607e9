package systray

import (
	"bytes"
	"encoding/binary"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markestedt/clipkeep/bus"
)

func TestDispatch(t *testing.T) {
	b := bus.New()
	quit := make(chan struct{})
	toggle := make(chan struct{})
	monitor := make(chan struct{})
	exit := make(chan struct{})

	done := make(chan struct{})
	go func() {
		dispatch(b, quit, toggle, monitor, exit)
		close(done)
	}()

	toggle <- struct{}{}
	monitor <- struct{}{}
	exit <- struct{}{}
	toggle <- struct{}{}
	close(quit)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch did not return after quit")
	}

	var types []bus.Type
	for _, e := range b.Drain() {
		types = append(types, e.Type)
	}
	assert.Equal(t, []bus.Type{
		bus.TrayToggleWindow,
		bus.TrayToggleMonitoring,
		bus.TrayExit,
		bus.TrayToggleWindow,
	}, types)
}

func TestIconPNG(t *testing.T) {
	data, err := iconPNG()
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, iconSize, img.Bounds().Dx())
	assert.Equal(t, iconSize, img.Bounds().Dy())
}

func TestWrapICO(t *testing.T) {
	pngData := []byte("\x89PNGfake")
	ico := wrapICO(pngData, 32)

	require.Len(t, ico, 22+len(pngData))
	le := binary.LittleEndian
	assert.Equal(t, uint16(1), le.Uint16(ico[2:4]), "type")
	assert.Equal(t, uint16(1), le.Uint16(ico[4:6]), "count")
	assert.Equal(t, byte(32), ico[6])
	assert.Equal(t, uint32(len(pngData)), le.Uint32(ico[14:18]))
	assert.Equal(t, uint32(22), le.Uint32(ico[18:22]))
	assert.Equal(t, pngData, ico[22:])
}

func TestStopWithoutStart(t *testing.T) {
	m := NewManager(bus.New())
	m.Stop()
	assert.NotEmpty(t, m.iconData)
}
