// Command secrethound is the simplified, content-only reuse of the core
// search engine: it scans a directory tree against a JSON rule file and
// emits findings as NDJSON to stdout, mirroring tools/secret-hound's
// "silent worker" contract.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/limearch/fastfind/internal/hound"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	var (
		rulesPath string
		workers   int
	)

	root := &cobra.Command{
		Use:   "secrethound <directory>",
		Short: "Scan a directory tree for secrets using a JSON rule file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := hound.LoadRules(rulesPath)
			if err != nil {
				log.Error("setup error", "err", err, "hint", "check --rules path and JSON syntax")
				return err
			}
			if len(rules) == 0 {
				return fmt.Errorf("no usable rules loaded from %s", rulesPath)
			}

			w := bufio.NewWriter(os.Stdout)
			s, err := hound.NewScanner(rules, workers, w)
			if err != nil {
				log.Error("pool creation failure", "err", err)
				return err
			}
			return s.ScanDirectory(args[0])
		},
	}

	flags := root.Flags()
	flags.StringVar(&rulesPath, "rules", "rules.json", "path to the JSON detection-rule file")
	flags.IntVar(&workers, "threads", 4, "worker count")

	root.SetArgs(argv)
	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}
