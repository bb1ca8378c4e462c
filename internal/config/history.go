package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// MaxHistory is the number of entries kept in a history file.
const MaxHistory = 1000

// ReadHistory returns the non-empty lines of path, oldest first. A missing
// file is an empty history.
func ReadHistory(path string) ([]string, error) {
	path, err := expandPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history: %w", err)
	}
	defer f.Close()

	var entries []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimRight(sc.Text(), "\r"); line != "" {
			entries = append(entries, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return entries, nil
}

// AppendHistory records query as the newest entry and trims the file to
// MaxHistory lines. Repeating the newest entry is a no-op.
func AppendHistory(path, query string) error {
	if query == "" || strings.ContainsAny(query, "\r\n") {
		return nil
	}
	entries, err := ReadHistory(path)
	if err != nil {
		return err
	}
	if n := len(entries); n > 0 && entries[n-1] == query {
		return nil
	}
	entries = append(entries, query)
	if over := len(entries) - MaxHistory; over > 0 {
		entries = entries[over:]
	}
	path, err = expandPath(path)
	if err != nil {
		return err
	}
	data := strings.Join(entries, "\n") + "\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}
