package env

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/resting/packages/value"
)

// LoadDotEnv parses a .env file into string variables, in file order.
// Supports: KEY=value, KEY="quoted value", KEY='single quoted', export KEY=value, # comments
func LoadDotEnv(path string) (*value.Object, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open env file: %w", err)
	}
	defer file.Close()

	result := value.NewObject()
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, v, found := strings.Cut(line, "=")
		if !found {
			continue
		}

		key = strings.TrimSpace(key)
		v = strings.TrimSpace(v)
		if key == "" {
			continue
		}

		if len(v) >= 2 {
			if (v[0] == '"' && v[len(v)-1] == '"') ||
				(v[0] == '\'' && v[len(v)-1] == '\'') {
				v = v[1 : len(v)-1]
			}
		}

		result.Set(key, value.String(v))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading env file: %w", err)
	}

	return result, nil
}
