// Package vm launches the gx virtual machine on a finished image.
package vm

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	Runner struct {
		// Path is the VM executable. Resolved by Find if empty.
		Path string

		Debug bool

		Stdout io.Writer
		Stderr io.Writer
	}
)

const (
	DefaultName = "gxvm"
	EnvVar      = "GXVM"
)

// Find resolves the VM executable: explicit path, $GXVM,
// gxvm next to the running binary, then gxvm from PATH.
func Find(path string) (string, error) {
	if path != "" {
		return path, nil
	}

	if p := os.Getenv(EnvVar); p != "" {
		return p, nil
	}

	if self, err := os.Executable(); err == nil {
		p := filepath.Join(filepath.Dir(self), DefaultName)

		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p, nil
		}
	}

	p, err := exec.LookPath(DefaultName)
	if err != nil {
		return "", errors.Wrap(err, "find %v", DefaultName)
	}

	return p, nil
}

// Args is the VM command line for image.
func (r *Runner) Args(image string) []string {
	if r.Debug {
		return []string{image, "-d"}
	}

	return []string{image}
}

// Run starts the VM on image and waits for it.
// A non-zero exit status is logged, not returned.
func (r *Runner) Run(ctx context.Context, image string) (err error) {
	path, err := Find(r.Path)
	if err != nil {
		return err
	}

	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "vm", "vm", path, "image", image, "debug", r.Debug)
	defer tr.Finish("err", &err)

	cmd := exec.CommandContext(ctx, path, r.Args(image)...)

	cmd.Stdout = r.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}

	cmd.Stderr = r.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	err = cmd.Run()

	var exit *exec.ExitError
	if errors.As(err, &exit) {
		tr.Printw("vm exited", "code", exit.ExitCode())

		return nil
	}
	if err != nil {
		return errors.Wrap(err, "run %v", path)
	}

	return nil
}
