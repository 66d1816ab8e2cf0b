package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const maxEnvSearchDepth = 6

// LoadEnvFile sets variables from the nearest .env file without overriding
// ones already present. It returns human-readable notes for the startup log.
func LoadEnvFile() []string {
	path, err := findEnvFile()
	if err != nil {
		return []string{fmt.Sprintf("failed to locate .env: %v", err)}
	}
	if path == "" {
		return []string{".env not found in current or parent directories"}
	}

	file, err := os.Open(path)
	if err != nil {
		return []string{fmt.Sprintf("failed to open %s: %v", path, err)}
	}
	defer file.Close()

	vars, err := parseEnv(file)
	if err != nil {
		return []string{fmt.Sprintf("failed to load %s: %v", path, err)}
	}

	var notes []string
	for key, value := range vars {
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			notes = append(notes, fmt.Sprintf("failed to set %s from env file", key))
		}
	}
	return append(notes, "loaded env from "+path)
}

func findEnvFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for range maxEnvSearchDepth {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", nil
}

// parseEnv reads KEY=VALUE lines. Blank lines and # comments are skipped, an
// "export " prefix and matching surrounding quotes are dropped.
func parseEnv(r io.Reader) (map[string]string, error) {
	vars := make(map[string]string)
	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		vars[key] = unquote(strings.TrimSpace(value))
	}
	return vars, scanner.Err()
}

func unquote(value string) string {
	if len(value) < 2 {
		return value
	}
	if (value[0] == '"' && value[len(value)-1] == '"') ||
		(value[0] == '\'' && value[len(value)-1] == '\'') {
		return value[1 : len(value)-1]
	}
	return value
}
