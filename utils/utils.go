package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"imagededupe/config"
	"imagededupe/imageprocessor"
)

// Commands understood by the CLI
var Commands = []string{"run", "check", "history"}

// ParseArguments converts command-line arguments (without the program name)
// into a map of flags and values. The first known command is stored under
// "command".
func ParseArguments(argv []string) map[string]string {
	args := make(map[string]string)

	commandIndex := -1
	for i, a := range argv {
		if isCommand(a) {
			args["command"] = a
			commandIndex = i
			break
		}
	}

	for i := 0; i < len(argv); i++ {
		if i == commandIndex {
			continue
		}
		arg := argv[i]

		// --key=value
		if strings.HasPrefix(arg, "--") && strings.Contains(arg, "=") {
			parts := strings.SplitN(arg, "=", 2)
			args[strings.TrimPrefix(parts[0], "--")] = parts[1]
			continue
		}

		// --key value, or a boolean --key
		if strings.HasPrefix(arg, "--") {
			flagName := strings.TrimPrefix(arg, "--")
			if i+1 >= len(argv) || strings.HasPrefix(argv[i+1], "--") || i+1 == commandIndex {
				args[flagName] = "true"
			} else {
				args[flagName] = argv[i+1]
				i++
			}
		}
	}

	return args
}

func isCommand(s string) bool {
	for _, c := range Commands {
		if s == c {
			return true
		}
	}
	return false
}

// GetDefaultJournalPath returns the journal location next to the executable
func GetDefaultJournalPath() string {
	return besideExecutable("imagededupe.db")
}

// GetDefaultLogPath returns the log file location next to the executable
func GetDefaultLogPath() string {
	return besideExecutable("dedupe.log")
}

func besideExecutable(name string) string {
	exePath, err := os.Executable()
	if err != nil {
		return name
	}
	return filepath.Join(filepath.Dir(exePath), name)
}

// PrintUsage outputs the command-line usage instructions
func PrintUsage(w io.Writer) {
	prog := filepath.Base(os.Args[0])
	fmt.Fprintf(w, "Usage:\n")
	fmt.Fprintf(w, "  %s run --dir=PATH [--config=FILE] [--threshold=VALUE] [--extensions=LIST] [--compare-size=N]\n", prog)
	fmt.Fprintf(w, "        [--logfile=PATH] [--journal[=PATH]] [--debug]\n")
	fmt.Fprintf(w, "  %s check --dir=PATH [same options as run]\n", prog)
	fmt.Fprintf(w, "  %s history [--journal=PATH] [--limit=N] [--run=ID]\n", prog)
	fmt.Fprintf(w, "\nParameters:\n")
	fmt.Fprintf(w, "  --dir          : Directory whose images are deduplicated and renamed\n")
	fmt.Fprintf(w, "  --config       : YAML configuration file\n")
	fmt.Fprintf(w, "  --threshold    : Similarity threshold (0.0-1.0, default: %.1f)\n", config.DefaultThreshold)
	fmt.Fprintf(w, "  --extensions   : Comma separated extensions (default: %s)\n", strings.Join(config.DefaultExtensions, ","))
	fmt.Fprintf(w, "                   decodable: %s\n", strings.Join(imageprocessor.GetSupportedExtensions(), ","))
	fmt.Fprintf(w, "  --compare-size : Longest edge compared, 0 for full size (default: %d)\n", config.DefaultCompareSize)
	fmt.Fprintf(w, "  --logfile      : Log file path (default: %s)\n", GetDefaultLogPath())
	fmt.Fprintf(w, "  --journal      : Record the run in a SQLite journal (default path: %s)\n", GetDefaultJournalPath())
	fmt.Fprintf(w, "  --limit        : Number of runs shown by history (default: 10)\n")
	fmt.Fprintf(w, "  --run          : Show the events of one journaled run\n")
	fmt.Fprintf(w, "  --debug        : Enable debug logging\n")
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  %s run --dir=/srv/photos --threshold=0.92 --journal\n", prog)
	fmt.Fprintf(w, "  %s check --dir=/srv/photos --extensions=jpg,png\n", prog)
	fmt.Fprintf(w, "  %s history --limit=5\n", prog)
}

// ParseThreshold parses and validates the threshold value from string
func ParseThreshold(thresholdStr string) (float64, error) {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(thresholdStr), 64)
	if err != nil || parsed < 0 || parsed > 1 {
		return 0, fmt.Errorf("invalid threshold value '%s', expected a number between 0 and 1", thresholdStr)
	}
	return parsed, nil
}

// ParseExtensions splits a comma separated list into normalized extensions
func ParseExtensions(list string) ([]string, error) {
	exts := config.NormalizeExtensions(strings.Split(list, ","))
	if len(exts) == 0 {
		return nil, fmt.Errorf("invalid extension list '%s'", list)
	}
	return exts, nil
}

// ParseNonNegative parses a flag value that must be an integer >= 0
func ParseNonNegative(name, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s value '%s', expected a non-negative integer", name, value)
	}
	return n, nil
}
