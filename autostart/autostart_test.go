package autostart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandQuotesPath(t *testing.T) {
	assert.Equal(t, `"/opt/clip keep/clipkeep" --startup`, Command("/opt/clip keep/clipkeep"))
}

func TestDesktopEntry(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "autostart")
	d := &desktopEntry{dir: dir, exe: "/usr/bin/clipkeep"}

	on, err := d.Enabled()
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, d.Set(true))
	on, err = d.Enabled()
	require.NoError(t, err)
	assert.True(t, on)

	data, err := os.ReadFile(filepath.Join(dir, "clipkeep.desktop"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `Exec="/usr/bin/clipkeep" --startup`)

	require.NoError(t, d.Set(false))
	on, err = d.Enabled()
	require.NoError(t, err)
	assert.False(t, on)

	// Disabling twice is not an error
	assert.NoError(t, d.Set(false))
}
