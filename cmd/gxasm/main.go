package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/gxasm/assembler"
	"github.com/slowlang/gxasm/assembler/image"
	"github.com/slowlang/gxasm/assembler/vm"
)

type (
	MultipleFilesError struct {
		Files []string
	}
)

const debugTopics = "macro,scope,eval,patch,expanded"

var ErrNoFile = errors.New("no source file given")

func main() {
	app := &cli.Command{
		Name:        "gxasm",
		Usage:       "[options] FILE",
		Description: "gxasm assembles gx source (.gxs) into a gx image (.gxa)",
		Action:      assembleAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("run,r", false, "run the image in the vm after assembly"),
			cli.NewFlag("debug,d", false, "verbose diagnostics, passed to the vm with --run"),
			cli.NewFlag("output,o", "", "output image path (default: FILE with .gxa extension)"),
			cli.NewFlag("vm", "", "vm executable (default: $GXVM, gxvm next to gxasm, gxvm from PATH)"),
			cli.NewFlag("verbosity,v", "", "tlog verbosity topics"),
			cli.HelpFlag,
		},
	}

	cli.RunAndExit(app, expandShortFlags(os.Args), os.Environ())
}

func assembleAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	debug := c.Bool("debug")

	switch v := c.String("verbosity"); {
	case v != "":
		tlog.SetVerbosity(v)
	case debug:
		tlog.SetVerbosity(debugTopics)
	}

	file, err := sourceFile(c.Args)
	if err != nil {
		return err
	}

	a := assembler.New(assembler.Options{
		Debug: debug,
		Dump:  os.Stderr,
	})

	out, err := outputName(file, c.String("output"))
	if err != nil {
		return err
	}

	buf, err := a.AssembleFile(ctx, file)
	if err != nil {
		return errors.Wrap(err, "assemble %v", file)
	}

	err = buf.WriteFile(ctx, out)
	if err != nil {
		return errors.Wrap(err, "write %v", out)
	}

	if !c.Bool("run") {
		return nil
	}

	r := vm.Runner{
		Path:  c.String("vm"),
		Debug: debug,
	}

	return r.Run(ctx, out)
}

func sourceFile(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", ErrNoFile
	case 1:
		return args[0], nil
	default:
		return "", &MultipleFilesError{Files: args}
	}
}

func outputName(src, out string) (string, error) {
	if out == "" {
		out = image.OutputName(src)
	}

	if filepath.Clean(out) == filepath.Clean(src) {
		return "", errors.New("output %v would overwrite the source", out)
	}

	return out, nil
}

// expandShortFlags splits the combined -rd and -dr forms.
func expandShortFlags(args []string) []string {
	res := make([]string, 0, len(args)+1)

	for i, a := range args {
		if a == "--" {
			return append(res, args[i:]...)
		}

		switch a {
		case "-rd", "-dr":
			res = append(res, "-r", "-d")
		default:
			res = append(res, a)
		}
	}

	return res
}

func (e *MultipleFilesError) Error() string {
	return fmt.Sprintf("one source file expected, got %d: %q", len(e.Files), e.Files)
}
