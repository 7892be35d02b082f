package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Variables written to the env file by the dashboard.
const (
	EnvSheetURL = EnvPrefix + "_SHEET_URL"
)

// SaveEnvValue sets key=value in the env file at path, creating it when
// missing. Only the lines assigning key are rewritten; comments, ordering
// and every other entry stay as the operator left them. The process
// environment is updated too so a later Load sees the same value.
func SaveEnvValue(path, key, value string) error {
	line, err := godotenv.Marshal(map[string]string{key: value})
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	mode := os.FileMode(0o644)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if info, statErr := os.Stat(path); statErr == nil {
			mode = info.Mode().Perm()
		}
	case os.IsNotExist(err):
	default:
		return fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	if err := os.WriteFile(path, []byte(replaceEnvLine(string(data), key, line)), mode); err != nil {
		return fmt.Errorf("failed to write env file %s: %w", path, err)
	}
	return os.Setenv(key, value)
}

// replaceEnvLine swaps every assignment of key in content for line, or
// appends line when key is not assigned.
func replaceEnvLine(content, key, line string) string {
	if content == "" {
		return line + "\n"
	}

	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	found := false
	for i, l := range lines {
		if assignsKey(l, key) {
			lines[i] = line
			found = true
		}
	}
	if !found {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n") + "\n"
}

func assignsKey(line, key string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return false
	}
	values, err := godotenv.Unmarshal(trimmed)
	if err != nil {
		return false
	}
	_, ok := values[key]
	return ok
}
