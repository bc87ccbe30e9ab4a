package blocking

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnderDir(t *testing.T) {
	tests := []struct {
		path, dir string
		want      bool
	}{
		{`C:\Program Files\7-Zip\7zFM.exe`, `C:\Program Files\7-Zip`, true},
		{`c:\program files\7-zip\7zFM.exe`, `C:\Program Files\7-Zip\`, true},
		{`C:\Program Files\7-Zip Extra\x.exe`, `C:\Program Files\7-Zip`, false},
		{`C:\Program Files\7-Zip`, `C:\Program Files\7-Zip`, false},
		{`/opt/app/bin/app`, `/opt/app`, true},
		{`/opt/app/bin/app`, ``, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, underDir(tt.path, tt.dir), "%s in %s", tt.path, tt.dir)
	}
}

func TestRunningFromEmptyDir(t *testing.T) {
	running, err := RunningFrom(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, running)
}

func TestRunningFromFindsCurrentProcess(t *testing.T) {
	exe, err := os.Executable()
	require.NoError(t, err)
	exe, err = filepath.EvalSymlinks(exe)
	require.NoError(t, err)

	running, err := RunningFrom(context.Background(), filepath.Dir(exe))
	require.NoError(t, err)
	assert.NotEmpty(t, running)

	running, err = RunningFrom(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, running)
}
