package clipboard

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteRead(t *testing.T) {
	if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		t.Skip("no display for clipboard access")
	}
	if err := Init(); err != nil {
		t.Skipf("clipboard unavailable: %v", err)
	}
	require.NoError(t, Write("xin chào"))
	got, err := Read()
	require.NoError(t, err)
	require.Equal(t, "xin chào", got)
}
