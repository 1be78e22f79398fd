// Package whitelist reads and writes topic whitelist files: one topic per
// line, blank lines and lines starting with '#' ignored.
package whitelist

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Load reads topics from a whitelist file.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open whitelist: %w", err)
	}
	defer f.Close()

	var topics []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		topics = append(topics, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read whitelist: %w", err)
	}
	return topics, nil
}

// Save writes topics to path, one per line, sorted, with a short header.
func Save(path string, topics []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create whitelist dir: %w", err)
	}
	sorted := append([]string(nil), topics...)
	sort.Strings(sorted)

	var b strings.Builder
	b.WriteString("# topic whitelist\n")
	for _, topic := range sorted {
		b.WriteString(topic)
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}

// List returns the names (without extension) of whitelist files under dir.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		names = append(names, strings.TrimSuffix(name, filepath.Ext(name)))
	}
	sort.Strings(names)
	return names, nil
}

// Resolve maps a whitelist name to its file path under dir. A name that is
// already a path to an existing file is returned as-is.
func Resolve(dir, name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}
	candidates := []string{
		filepath.Join(dir, name),
		filepath.Join(dir, name+".txt"),
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("whitelist %q not found under %s", name, dir)
}
