package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sandfs/sandfs"
	"github.com/sandfs/sandfs/config"
	"github.com/sandfs/sandfs/filesystem"
	"github.com/sandfs/sandfs/internal/util"
	"github.com/sandfs/sandfs/osdir"
)

func main() {
	// Parse command line arguments
	var (
		root       string
		configPath string
		quota      int64
		verbose    int
	)
	flag.StringVar(&root, "root", "", "Directory backing the storage area (required)")
	flag.StringVar(&root, "r", "", "--root (shorthand)")
	flag.StringVar(&configPath, "config", "", "Path to config override file (.yaml/.yml/.json)")
	flag.Int64Var(&quota, "quota", 0, "Total byte budget; 0 disables the quota")
	flag.IntVar(&verbose, "verbose", 3, "Log verbosity level between 1 (error) and 5 (trace). Default is 3 (info).")
	flag.IntVar(&verbose, "v", 3, "--verbose (shorthand)")
	flag.Parse()

	cfg := config.NewConfig(&config.ConfigOverride{LogLvl: &verbose})
	if configPath != "" {
		override, err := config.LoadConfigOverrideFile(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg.Merge(override)
	}
	if quota > 0 {
		cfg.QuotaBytes = quota
	}

	util.InitializeLogger(cfg.LogLvl)
	logger := util.GetLogger("main")

	if root == "" {
		logger.Fatal().Msg("Storage root not specified; pass it with -root")
	}

	provider, err := osdir.New(root, osdir.Options{QuotaBytes: cfg.QuotaBytes})
	if err != nil {
		logger.Fatal().Err(err).Str("root", root).Msg("Failed to open storage root")
	}
	fs := filesystem.New(provider, cfg)

	ctx := context.Background()
	if err := run(ctx, fs, flag.Args()); err != nil {
		logger.Fatal().Err(err).Msg("Command failed")
	}
}

func run(ctx context.Context, fs *filesystem.FS, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: sandfs -root DIR ls|cat|put|mkdir|rm|cp|mv PATH [PATH]")
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "ls":
		path := "/"
		if len(rest) > 0 {
			path = rest[0]
		}
		children, err := fs.Dir(path).Children(ctx)
		if err != nil {
			return err
		}
		for _, c := range children {
			fmt.Printf("%-9s %s\n", c.Kind(), c.Path())
		}
		return nil

	case "cat":
		if len(rest) != 1 {
			return fmt.Errorf("cat needs exactly one path")
		}
		r, err := fs.File(rest[0]).Stream(ctx)
		if err != nil {
			return err
		}
		defer r.Close()
		_, err = io.Copy(os.Stdout, r)
		return err

	case "put":
		if len(rest) != 1 {
			return fmt.Errorf("put needs exactly one path")
		}
		return put(ctx, fs, rest[0])

	case "mkdir":
		if len(rest) != 1 {
			return fmt.Errorf("mkdir needs exactly one path")
		}
		return fs.Dir(rest[0]).Create(ctx)

	case "rm":
		if len(rest) != 1 {
			return fmt.Errorf("rm needs exactly one path")
		}
		return remove(ctx, fs, rest[0])

	case "cp", "mv":
		if len(rest) != 2 {
			return fmt.Errorf("%s needs a source and a destination", cmd)
		}
		return transfer(ctx, fs, cmd, rest[0], rest[1])

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// put streams stdin into the file at path through an exclusive session.
func put(ctx context.Context, fs *filesystem.FS, path string) error {
	sess, err := fs.File(path).Open(ctx, filesystem.OpenOptions{Mode: sandfs.ModeReadWrite})
	if err != nil {
		return err
	}
	defer sess.Close(ctx) // nolint:errcheck

	if err := sess.Truncate(ctx, 0); err != nil {
		return err
	}
	buf := make([]byte, 64*1024)
	for {
		n, rerr := os.Stdin.Read(buf)
		if n > 0 {
			if _, werr := sess.Write(ctx, buf[:n]); werr != nil {
				return werr
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return rerr
		}
	}
	return sess.Flush(ctx)
}

// remove deletes a file or directory; directories go recursively.
func remove(ctx context.Context, fs *filesystem.FS, path string) error {
	if exists, err := fs.Dir(path).Exists(ctx); err == nil && exists {
		return fs.Dir(path).Remove(ctx)
	}
	return fs.File(path).Remove(ctx)
}

// transfer copies or moves src to dst, dispatching on the source kind.
// Moves are copy-then-remove and are not atomic.
func transfer(ctx context.Context, fs *filesystem.FS, cmd, src, dst string) error {
	if exists, err := fs.Dir(src).Exists(ctx); err == nil && exists {
		d := fs.Dir(src)
		if cmd == "mv" {
			return d.MoveTo(ctx, fs.Dir(dst))
		}
		return d.CopyTo(ctx, fs.Dir(dst))
	}
	f := fs.File(src)
	if cmd == "mv" {
		_, err := f.MoveTo(ctx, dst)
		return err
	}
	_, err := f.CopyTo(ctx, dst)
	return err
}
