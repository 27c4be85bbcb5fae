package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goforj/godump"
	"golang.org/x/term"

	"github.com/antibyte/gwbasic/pkg/configuration"
	"github.com/antibyte/gwbasic/pkg/library"
	"github.com/antibyte/gwbasic/pkg/logger"
	"github.com/antibyte/gwbasic/pkg/program"
	"github.com/antibyte/gwbasic/pkg/tokens"
)

type options struct {
	configPath string
	format     string
	output     string
	saveName   string
	loadName   string
	catalog    bool
	dump       bool
	from, to   int
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", configuration.DefaultPath, "settings file")
	flag.StringVar(&opts.format, "format", "ascii", "output format: ascii, binary or protected")
	flag.StringVar(&opts.output, "o", "", "write the program to this file")
	flag.StringVar(&opts.saveName, "save", "", "save the program in the library under this name")
	flag.StringVar(&opts.loadName, "load", "", "load the program from the library instead of a file")
	flag.BoolVar(&opts.catalog, "catalog", false, "list the programs in the library")
	flag.BoolVar(&opts.dump, "dump", false, "dump the line index")
	flag.IntVar(&opts.from, "from", 0, "first line to list")
	flag.IntVar(&opts.to, "to", 65535, "last line to list")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [program file | -]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// Initialize configuration (before all other initializations)
	if err := configuration.Initialize(opts.configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()
	logger.ConfigInfo("Configuration loaded from: %s", opts.configPath)

	if err := run(context.Background(), opts, flag.Args()); err != nil {
		logger.Error(logger.AreaGeneral, "%v", err)
		fmt.Fprintln(os.Stderr, err)
		logger.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, args []string) error {
	mode, err := program.ParseMode(opts.format)
	if err != nil {
		return err
	}

	var lib *library.Library
	if opts.saveName != "" || opts.loadName != "" || opts.catalog {
		lib, err = library.Open(configuration.GetString("Library", "database", "programs.db"))
		if err != nil {
			return err
		}
		defer lib.Close()
	}

	if opts.catalog {
		return printCatalog(ctx, lib)
	}

	store := program.New(program.SettingsFromConfig(), tokens.NewKeywordTable(tokens.GrammarFromConfig()))
	if err := loadProgram(ctx, opts, args, lib, store); err != nil {
		return err
	}

	if opts.dump {
		godump.Dump(store.Index())
	}

	if opts.saveName != "" {
		entry, err := lib.Save(ctx, opts.saveName, store, mode)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved %s (%d lines, %d bytes)\n", entry.Name, entry.Lines, entry.Size)
	}

	switch {
	case opts.output != "":
		return writeFile(opts.output, store, mode)
	case opts.saveName != "" || opts.dump:
		return nil
	case mode != program.ModeASCII:
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("refusing to write a %s program to a terminal, use -o", mode)
		}
		return store.SaveTo(os.Stdout, mode)
	}
	return listProgram(store, opts.from, opts.to)
}

func loadProgram(ctx context.Context, opts options, args []string, lib *library.Library, store *program.Store) error {
	if opts.loadName != "" {
		_, err := lib.Load(ctx, opts.loadName, store)
		return err
	}
	if len(args) != 1 {
		flag.Usage()
		return fmt.Errorf("expected one program file")
	}

	var r io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open program: %w", err)
		}
		defer f.Close()
		r = f
	}
	return store.Load(r)
}

func writeFile(path string, store *program.Store, mode program.Mode) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := store.SaveTo(f, mode); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func listProgram(store *program.Store, from, to int) error {
	lines, err := store.Lines(from, to)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(os.Stdout)
	for _, l := range lines {
		fmt.Fprintln(w, l.Text)
	}
	return w.Flush()
}

func printCatalog(ctx context.Context, lib *library.Library) error {
	entries, err := lib.List(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%-20s %-9s %5d lines %6d bytes  %s\n",
			e.Name, e.Format, e.Lines, e.Size, e.SavedAt.Format(time.DateTime))
	}
	return nil
}
