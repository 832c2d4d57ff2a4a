package configs

import (
	"bufio"
	"os"
	"regexp"
	"strings"
)

// varPattern matches ${VAR} references inside a raw config source string.
var varPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// InterpolateEnv replaces every ${VAR} occurrence in src with the value of
// the environment variable VAR, leaving unresolved references untouched so
// they surface as a CUE syntax/validation error instead of silently
// becoming an empty string.
func InterpolateEnv(src string) string {
	return varPattern.ReplaceAllStringFunc(src, func(match string) string {
		name := varPattern.FindStringSubmatch(match)[1]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return match
	})
}

// LoadEnvFiles loads each path in order into the process environment,
// later files overriding variables set by earlier ones. A missing file is
// skipped rather than treated as an error, since env_file lists are
// typically optimistic about which stage of deployment is running.
func LoadEnvFiles(paths []string) error {
	for _, path := range paths {
		if err := loadEnvFile(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
	}
	return nil
}

func loadEnvFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	return scanner.Err()
}
