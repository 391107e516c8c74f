package vm

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgs(t *testing.T) {
	r := Runner{}
	assert.Equal(t, []string{"a.gxa"}, r.Args("a.gxa"))

	r.Debug = true
	assert.Equal(t, []string{"a.gxa", "-d"}, r.Args("a.gxa"))
}

func TestFind(t *testing.T) {
	p, err := Find("/opt/gxvm")
	require.NoError(t, err)
	assert.Equal(t, "/opt/gxvm", p)

	t.Setenv(EnvVar, "/from/env/gxvm")

	p, err = Find("")
	require.NoError(t, err)
	assert.Equal(t, "/from/env/gxvm", p)

	t.Setenv(EnvVar, "")
	t.Setenv("PATH", t.TempDir())

	_, err = Find("")
	assert.Error(t, err)
}

// The shell stands in for the vm: the image is a script it runs.
func TestRun(t *testing.T) {
	sh := "/bin/sh"
	if _, err := os.Stat(sh); err != nil {
		t.Skip("no /bin/sh")
	}

	img := filepath.Join(t.TempDir(), "prog.gxa")

	err := os.WriteFile(img, []byte("echo run \"$1\"\necho oops >&2\nexit 3\n"), 0o644)
	require.NoError(t, err)

	var stdout, stderr bytes.Buffer

	r := Runner{
		Path:   sh,
		Debug:  true,
		Stdout: &stdout,
		Stderr: &stderr,
	}

	err = r.Run(context.Background(), img)
	require.NoError(t, err, "non-zero exit is not an error")

	assert.Equal(t, "run -d\n", stdout.String())
	assert.Equal(t, "oops\n", stderr.String())
}

func TestRunMissing(t *testing.T) {
	r := Runner{Path: filepath.Join(t.TempDir(), "no-such-vm")}

	err := r.Run(context.Background(), "prog.gxa")
	assert.Error(t, err)
}
