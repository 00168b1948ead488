package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// LoadConfigArgs reads a fastfind config file and returns its lines as
// pre-pended CLI arguments, one flag per line. Location is
// FASTFIND_CONFIG_PATH, or ~/.fastfindrc. Returns nil if no config file is
// found — this is ambient convenience, not a setup error.
//
// Grounded on the teacher's internal/cli/configfile.go.
func LoadConfigArgs() []string {
	path := os.Getenv("FASTFIND_CONFIG_PATH")
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(home, ".fastfindrc")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var args []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		args = append(args, line)
	}
	return args
}
