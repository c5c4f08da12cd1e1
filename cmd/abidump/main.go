// abidump reads C headers and prints how the x86-64 System V calling
// convention passes the return value and the arguments of each function
// declared in them. It is mainly intended for checking the classifier
// against a compiler.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/susji/sysvabi/target"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func fatal(f string, va ...interface{}) {
	fmt.Fprintf(os.Stderr, "fatal: "+f+"\n", va...)
	os.Exit(1)
}

func perr(f string, va ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+f+"\n", va...)
}

func note(f string, va ...interface{}) {
	fmt.Fprintf(os.Stdout, "[] "+f+"\n", va...)
}

func platform(c *cli.Context) (*target.Target, error) {
	pl := target.LinuxAMD64()
	if fn := c.String("target"); fn != "" {
		t, err := target.LoadFile(fn)
		if err != nil {
			return nil, err
		}
		pl = t
	}
	if c.Bool("avx") {
		return pl.WithVectorBits(256)
	}
	return pl, nil
}

func run(c *cli.Context) error {
	pl, err := platform(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("platform: %s", err), 1)
	}
	if c.Bool("dumptarget") {
		b, err := pl.Marshal()
		if err != nil {
			return cli.Exit(fmt.Sprintf("platform: %s", err), 1)
		}
		fmt.Fprint(c.App.Writer, string(b))
	}

	opts := &options{
		platform: pl,
		dumptoks: c.Bool("dumptoks"),
	}
	if funcs := c.StringSlice("func"); len(funcs) > 0 {
		opts.only = map[string]struct{}{}
		for _, f := range funcs {
			opts.only[f] = struct{}{}
		}
	}

	files := c.Args().Slice()
	if len(files) == 0 {
		if c.Bool("dumptarget") {
			return nil
		}
		files = []string{"-"}
	}

	// Files are processed concurrently but reported in the given order.
	results := make([]*result, len(files))
	g, ctx := errgroup.WithContext(c.Context)
	g.SetLimit(runtime.NumCPU())
	for i, fn := range files {
		i, fn := i, fn
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := processFile(fn, opts)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	failed := 0
	for _, r := range results {
		fmt.Fprint(c.App.Writer, r.out.String())
		if r.nfuncs == 0 && len(r.errs) == 0 {
			note("%s: no functions", r.fn)
		}
		for _, err := range r.errs {
			perr("%s", err)
		}
		failed += len(r.errs)
	}
	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d error(s)", failed), 1)
	}
	return nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "abidump",
		Usage:     "dump the x86-64 System V ABI of C function declarations",
		ArgsUsage: "[header.h ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "target",
				Aliases: []string{"t"},
				Usage:   "read the platform table from a YAML `FILE`",
			},
			&cli.StringSliceFlag{
				Name:    "func",
				Aliases: []string{"f"},
				Usage:   "only dump the named function, may be repeated",
			},
			&cli.BoolFlag{
				Name:  "avx",
				Usage: "assume 256-bit vector registers",
			},
			&cli.BoolFlag{
				Name:  "dumptoks",
				Usage: "dump lexed tokens",
			},
			&cli.BoolFlag{
				Name:  "dumptarget",
				Usage: "dump the platform table as YAML",
			},
		},
		Action: run,
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fatal("%s", err)
	}
}
