package shell

import (
	"fmt"
	"strings"

	"github.com/Cyclone1070/kiro/internal/tool/helper/content"
)

// ParseEnvFile reads KEY=VALUE lines. Blank lines and # comments are
// skipped and one layer of matching quotes is removed. Multi-line values
// and variable expansion are not supported.
func ParseEnvFile(fs envFileReader, path string) (map[string]string, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}

	env := make(map[string]string)
	for i, raw := range content.SplitLines(string(data)) {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %s:%d: %s", ErrEnvFileParse, path, i+1, line)
		}
		value = strings.TrimSpace(value)
		if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[len(value)-1] == value[0] {
			value = value[1 : len(value)-1]
		}
		env[key] = value
	}
	return env, nil
}
