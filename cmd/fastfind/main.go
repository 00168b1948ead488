// Command fastfind is a parallel filesystem search engine: given a
// filename pattern, an optional content pattern, and metadata filters, it
// walks a directory tree and reports every matching entry.
package main

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/limearch/fastfind/internal/config"
	"github.com/limearch/fastfind/internal/sink"
	"github.com/limearch/fastfind/internal/walker"
)

// version is stamped at release time; fastfind's original C counterpart
// prints a literal "fastfind 1.5.0", which this default preserves.
var version = "1.5.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	cfg := config.New()

	var (
		directory    string
		extension    string
		typeFlag     string
		maxDepth     int
		sizeArg      string
		mtimeArg     string
		ownerArg     string
		permsArg     string
		contentArg   string
		excludeDirs  []string
		noIgnoreVCS  bool
		showHidden   bool
		withLineNo   bool
		format       string
		outputFile   string
		workers      int
		longListing  bool
		ignoreCase   bool
		noColor      bool
		quiet        bool
		printVersion bool
	)

	root := &cobra.Command{
		Use:   "fastfind [directory]",
		Short: "Parallel filesystem search",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if printVersion {
				fmt.Fprintf(cmd.OutOrStdout(), "fastfind %s\n", version)
				return nil
			}

			// The starting directory may also be given as the sole
			// positional argument (spec.md §6); an explicit --directory
			// flag still wins.
			if len(args) == 1 && !cmd.Flags().Changed("directory") {
				directory = args[0]
			}

			pattern, err := cmd.Flags().GetString("pattern")
			if err != nil {
				return err
			}
			if pattern == "" {
				return fmt.Errorf("a filename pattern is required (--pattern)")
			}

			if err := applyFlags(cfg, applyFlagsArgs{
				pattern:     pattern,
				directory:   directory,
				extension:   extension,
				typeFlag:    typeFlag,
				maxDepth:    maxDepth,
				sizeArg:     sizeArg,
				mtimeArg:    mtimeArg,
				ownerArg:    ownerArg,
				permsArg:    permsArg,
				contentArg:  contentArg,
				excludeDirs: excludeDirs,
				noIgnoreVCS: noIgnoreVCS,
				showHidden:  showHidden,
				withLineNo:  withLineNo,
				workers:     workers,
				ignoreCase:  ignoreCase,
			}); err != nil {
				log.Error("setup error", "err", err, "hint", "check --pattern, --size, --mtime, --perms, --owner syntax")
				return err
			}

			out, closeOut, err := resolveOutput(outputFile)
			if err != nil {
				log.Error("cannot open output file", "path", outputFile, "err", err)
				return err
			}
			defer closeOut()

			useColor := !noColor && outputFile == "" && sink.StdoutIsTerminal()
			outFormat := parseFormat(format)
			if longListing {
				outFormat = sink.FormatLong
			}
			s := sink.New(out, outFormat, useColor)
			cfg.Sink = s

			if err := cfg.Validate(); err != nil {
				log.Error("setup error", "err", err)
				return err
			}

			if err := s.Open(); err != nil {
				return err
			}

			w, err := walker.New(cfg)
			if err != nil {
				log.Error("pool creation failure", "err", err)
				return err
			}

			start := time.Now()
			if err := w.Run(); err != nil {
				log.Error("setup error", "err", err)
				return err
			}
			if err := s.Close(); err != nil {
				return err
			}

			if !quiet {
				c := w.Counters()
				fmt.Fprintf(os.Stderr, "Searched %d directories and %d files. Found %d matches in %.2f seconds.\n",
					c.DirsScanned.Load(), c.FilesScanned.Load(), c.MatchesFound.Load(), time.Since(start).Seconds())
			}
			return nil
		},
	}

	flags := root.Flags()
	flags.String("pattern", "", "filename regex (required)")
	flags.StringVarP(&directory, "directory", "d", ".", "starting directory")
	flags.StringVarP(&extension, "ext", "e", "", "required filename extension")
	flags.StringVarP(&typeFlag, "type", "t", "", "entry type filter: any combination of f, d, l")
	flags.IntVarP(&maxDepth, "max-depth", "m", -1, "maximum recursion depth (-1 for unlimited)")
	flags.StringVar(&sizeArg, "size", "", "size filter, e.g. +10M, -1K, =0")
	flags.StringVar(&mtimeArg, "mtime", "", "mtime filter in days, e.g. +7d, -1d, 3d")
	flags.StringVar(&ownerArg, "owner", "", "owner username filter")
	flags.StringVar(&permsArg, "perms", "", "octal permission filter, e.g. 644")
	flags.StringVar(&contentArg, "content", "", "content regex, applied to regular files")
	flags.StringArrayVar(&excludeDirs, "exclude", nil, "basename to exclude (repeatable)")
	flags.BoolVar(&noIgnoreVCS, "no-ignore", false, "disable .gitignore-style ignore files")
	flags.BoolVarP(&showHidden, "show-hidden", "s", false, "include dotfiles")
	flags.BoolVar(&withLineNo, "with-line-number", false, "report matching content lines with line numbers")
	flags.StringVar(&format, "format", "text", "output format: text, json, csv")
	flags.StringVarP(&outputFile, "output", "o", "", "write output to a file instead of stdout")
	flags.IntVar(&workers, "threads", 0, "worker count (0 selects the online CPU count)")
	flags.BoolVarP(&longListing, "long-listing", "l", false, "long-listing output")
	flags.BoolVarP(&ignoreCase, "ignore-case", "i", false, "case-insensitive name pattern")
	flags.BoolVar(&noColor, "no-color", false, "disable colored text output")
	flags.BoolVarP(&quiet, "quiet", "q", false, "suppress the post-walk summary line")
	flags.BoolVarP(&printVersion, "version", "v", false, "print version and exit")

	root.SetArgs(append(config.LoadConfigArgs(), argv...))
	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}

type applyFlagsArgs struct {
	pattern, directory, extension, typeFlag string
	maxDepth                                int
	sizeArg, mtimeArg, ownerArg, permsArg    string
	contentArg                              string
	excludeDirs                             []string
	noIgnoreVCS, showHidden, withLineNo      bool
	workers                                 int
	ignoreCase                              bool
}

func applyFlags(cfg *config.SearchConfig, a applyFlagsArgs) error {
	nameRe := a.pattern
	if a.ignoreCase {
		nameRe = "(?i)" + nameRe
	}
	re, err := regexp.Compile(nameRe)
	if err != nil {
		return fmt.Errorf("invalid name pattern %q: %w", a.pattern, err)
	}
	cfg.NameRegex = re

	cfg.RootDir = a.directory
	cfg.Extension = a.extension
	cfg.ExtensionCaseFold = a.ignoreCase
	cfg.MaxDepth = a.maxDepth
	cfg.ExcludeDirs = a.excludeDirs
	cfg.IgnoreVCS = !a.noIgnoreVCS
	cfg.NoHidden = !a.showHidden
	cfg.WithLineNo = a.withLineNo

	if a.typeFlag != "" {
		mask, err := parseTypeMask(a.typeFlag)
		if err != nil {
			return err
		}
		cfg.TypeMask = mask
	}

	if a.sizeArg != "" {
		p, err := config.ParseSize(a.sizeArg)
		if err != nil {
			return err
		}
		cfg.Size = p
	}

	if a.mtimeArg != "" {
		p, err := config.ParseMtime(a.mtimeArg)
		if err != nil {
			return err
		}
		cfg.Mtime = p
	}

	if a.ownerArg != "" {
		p, err := config.ParseOwner(a.ownerArg)
		if err != nil {
			return err
		}
		cfg.Owner = p
	}

	if a.permsArg != "" {
		p, err := config.ParsePerms(a.permsArg)
		if err != nil {
			return err
		}
		cfg.Perms = p
	}

	if a.contentArg != "" {
		re, err := regexp.Compile(a.contentArg)
		if err != nil {
			return fmt.Errorf("invalid content pattern %q: %w", a.contentArg, err)
		}
		cfg.ContentRegex = re
	}

	if a.workers > 0 {
		cfg.Workers = a.workers
	}

	return nil
}

func parseTypeMask(s string) (config.TypeMask, error) {
	var mask config.TypeMask
	for _, c := range s {
		switch c {
		case 'f':
			mask |= config.TypeFile
		case 'd':
			mask |= config.TypeDir
		case 'l':
			mask |= config.TypeLink
		default:
			return 0, fmt.Errorf("unknown type filter character %q (use f, d, l)", c)
		}
	}
	return mask, nil
}

func parseFormat(s string) sink.Format {
	switch s {
	case "json":
		return sink.FormatJSON
	case "csv":
		return sink.FormatCSV
	case "long":
		return sink.FormatLong
	default:
		return sink.FormatText
	}
}

func resolveOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
