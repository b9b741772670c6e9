package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// CommonSubdomains is the built-in list used when no wordlist is given
var CommonSubdomains = []string{
	"www", "mail", "ftp", "blog", "dev", "test", "admin",
	"api", "webmail", "ns1", "ns2", "vpn", "m", "portal",
}

// CommonPaths is the built-in list of files and directories to probe
var CommonPaths = []string{
	"admin/", "login.php", "robots.txt", "sitemap.xml", "backup/",
	"config.php", "index.php", "test/", "upload/", "phpmyadmin/",
	".env", "wp-admin/", "wp-login.php", "panel/",
}

// Default wordlist locations (SecLists layout)
const (
	DefaultSubdomainWordlist = "/usr/share/wordlists/seclists/Discovery/DNS/subdomains-top1million-5000.txt"
	DefaultPathWordlist      = "/usr/share/wordlists/seclists/Discovery/Web-Content/common.txt"
)

// LoadWordlist reads entries from a file (one per line)
func LoadWordlist(filename string) ([]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open wordlist: %w", err)
	}
	defer file.Close()

	words, err := ReadWordlist(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return words, nil
}

// ReadWordlist reads entries from r, skipping blank lines, comments and duplicates
func ReadWordlist(r io.Reader) ([]string, error) {
	var words []string
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		words = append(words, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading wordlist: %w", err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("wordlist is empty")
	}
	return words, nil
}

// WordlistOrDefault loads path if set, then the default file if present,
// falling back to the built-in list
func WordlistOrDefault(path, defaultPath string, builtin []string) ([]string, string, error) {
	if path != "" {
		words, err := LoadWordlist(path)
		return words, path, err
	}
	if _, err := os.Stat(defaultPath); err == nil {
		if words, err := LoadWordlist(defaultPath); err == nil {
			return words, defaultPath, nil
		}
	}
	return builtin, "built-in", nil
}
