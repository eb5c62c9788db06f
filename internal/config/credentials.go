package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Credentials holds the StorCycle API login pair.
type Credentials struct {
	Username string
	Password string
}

// DefaultCredentialsPath returns the conventional credentials file location,
// ~/.SPECTRA.
func DefaultCredentialsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".SPECTRA"
	}
	return filepath.Join(home, ".SPECTRA")
}

// LoadCredentials parses a KEY=VALUE credentials file. Blank lines and lines
// starting with '#' are ignored; any other line must contain '='. The file
// must define both USERNAME and PASSWORD.
func LoadCredentials(path string) (*Credentials, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening credentials file: %w", err)
	}
	defer f.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid line in credentials file %s: %q", path, line)
		}
		values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}

	creds := &Credentials{
		Username: values["USERNAME"],
		Password: values["PASSWORD"],
	}
	if creds.Username == "" || creds.Password == "" {
		return nil, fmt.Errorf("USERNAME and PASSWORD must be defined in %s", path)
	}

	return creds, nil
}
