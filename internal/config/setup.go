package config

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Save writes cfg to path as indented JSON, creating the directory if needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// RunSetup prompts on w for each setting, reading answers from r.
// An empty answer keeps the value from current. Invalid answers keep the
// current value and say so.
func RunSetup(r io.Reader, w io.Writer, current Config) (Config, error) {
	br := bufio.NewReader(r)
	cfg := current

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Fprintf(w, "  %s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Fprintf(w, "  %s: ", prompt)
		}
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	askInt := func(prompt string, val *int) error {
		ans, err := ask(prompt, strconv.Itoa(*val))
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(ans)
		if err != nil || n <= 0 {
			fmt.Fprintf(w, "  %q is not a positive number, keeping %d\n", ans, *val)
			return nil
		}
		*val = n
		return nil
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "  ┌─────────────────────────────────┐")
	fmt.Fprintln(w, "  │     sessiondiff — settings      │")
	fmt.Fprintln(w, "  └─────────────────────────────────┘")
	fmt.Fprintln(w)

	format, err := ask("Default note format (markdown/json/diff)", cfg.DefaultFormat)
	if err != nil {
		return cfg, err
	}
	switch strings.ToLower(format) {
	case "markdown", "json", "diff":
		cfg.DefaultFormat = strings.ToLower(format)
	default:
		fmt.Fprintf(w, "  unknown format %q, keeping %s\n", format, cfg.DefaultFormat)
	}

	if cfg.OutputDir, err = ask("Directory to save notes in (empty prints only)", cfg.OutputDir); err != nil {
		return cfg, err
	}
	if err := askInt("Diff lines shown in Markdown notes", &cfg.MaxDiffLines); err != nil {
		return cfg, err
	}
	if err := askInt("Debounce (milliseconds)", &cfg.DebounceMillis); err != nil {
		return cfg, err
	}

	interval, err := ask("Poll interval (e.g. 5s, 0 disables)", cfg.PollInterval)
	if err != nil {
		return cfg, err
	}
	if _, perr := time.ParseDuration(interval); perr != nil {
		fmt.Fprintf(w, "  %q is not a duration, keeping %s\n", interval, cfg.PollInterval)
	} else {
		cfg.PollInterval = interval
	}

	if cfg.GitBinary, err = ask("git executable", cfg.GitBinary); err != nil {
		return cfg, err
	}

	fmt.Fprintln(w)
	return cfg, nil
}
