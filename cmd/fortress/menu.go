package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/techfortress/fortress/pkg/config"
	"github.com/techfortress/fortress/pkg/input"
	"github.com/techfortress/fortress/pkg/scanner"
	"github.com/techfortress/fortress/pkg/web"
)

const menuText = `
Tech Fortress Reconnaissance Toolkit
  1. Ping a host (ICMP)
  2. Port scan (TCP, %s)
  3. Web info (headers, title)
  4. Subdomain enumeration
  5. Directory/file existence check
  6. Banner grab
  7. IP geolocation
  0. Exit
`

// errQuit ends the menu loop when input runs out
var errQuit = errors.New("quit")

type menu struct {
	a  *app
	in *bufio.Scanner
	w  io.Writer
}

// runMenu shows the numbered menu until the user exits or input ends.
// Each tool runs under its own interruptible context so Ctrl-C stops the
// running tool and returns to the menu.
func runMenu(ctx context.Context, a *app, in io.Reader) error {
	m := &menu{a: a, in: bufio.NewScanner(in), w: a.con.Writer()}

	for {
		fmt.Fprintf(m.w, menuText, config.Scanner.MenuPorts)
		choice, err := m.prompt("Enter your choice (0-7): ")
		if err != nil {
			break
		}

		if choice == "0" {
			break
		}
		action, ok := m.actions()[choice]
		if !ok {
			a.con.Errorf("Invalid choice %q, please enter a number from 0 to 7.", choice)
			continue
		}

		runCtx, cancel := interruptible(ctx)
		err = action(runCtx)
		cancel()
		if errors.Is(err, errQuit) {
			break
		}
		if err != nil {
			a.con.Errorf("%v", err)
		}
		a.con.Separate()

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	a.con.Infof("Exiting Tech Fortress. Stay safe and ethical, comrade!")
	return nil
}

func (m *menu) actions() map[string]func(context.Context) error {
	return map[string]func(context.Context) error{
		"1": m.ping,
		"2": m.scan,
		"3": m.webInfo,
		"4": m.subdomains,
		"5": m.dirs,
		"6": m.banner,
		"7": m.geo,
	}
}

// prompt prints label and returns the next trimmed input line
func (m *menu) prompt(label string) (string, error) {
	fmt.Fprint(m.w, label)
	if !m.in.Scan() {
		fmt.Fprintln(m.w)
		if err := m.in.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}
	return strings.TrimSpace(m.in.Text()), nil
}

// target prompts for a required value
func (m *menu) target(label string) (string, error) {
	v, err := m.prompt(label)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", errors.New("no target entered")
	}
	return v, nil
}

// wordlist prompts for an optional wordlist path
func (m *menu) wordlist(defaultPath string, builtin []string) ([]string, error) {
	path, err := m.prompt("Wordlist path (empty for default): ")
	if err != nil {
		return nil, err
	}
	words, source, err := input.WordlistOrDefault(path, defaultPath, builtin)
	if err != nil {
		return nil, err
	}
	m.a.con.Infof("Using wordlist: %s (%d entries)", source, len(words))
	return words, nil
}

func (m *menu) ping(ctx context.Context) error {
	target, err := m.target("Enter IP address, CIDR or hostname to ping: ")
	if err != nil {
		return err
	}
	cfg, workers := ResolvePingConfig(PingFlags{})
	return m.a.ping(ctx, strings.Fields(target), cfg, workers)
}

func (m *menu) scan(ctx context.Context) error {
	target, err := m.target("Enter target IP or hostname for port scan: ")
	if err != nil {
		return err
	}
	ports, opts, err := ResolveScanFlags(ScanFlags{Ports: config.Scanner.MenuPorts})
	if err != nil {
		return err
	}
	return m.a.scan(ctx, target, ports, opts, "")
}

func (m *menu) webInfo(ctx context.Context) error {
	url, err := m.target("Enter URL (e.g., http://example.com): ")
	if err != nil {
		return err
	}
	return m.a.webInfo(ctx, url)
}

func (m *menu) subdomains(ctx context.Context) error {
	domain, err := m.target("Enter domain (e.g., example.com): ")
	if err != nil {
		return err
	}
	words, err := m.wordlist(input.DefaultSubdomainWordlist, input.CommonSubdomains)
	if err != nil {
		return err
	}
	return m.a.subdomains(ctx, domain, words, "")
}

func (m *menu) dirs(ctx context.Context) error {
	base, err := m.target("Enter base URL (e.g., http://example.com/): ")
	if err != nil {
		return err
	}
	paths, err := m.wordlist(input.DefaultPathWordlist, input.CommonPaths)
	if err != nil {
		return err
	}
	return m.a.dirs(ctx, base, paths, web.DefaultBustOptions())
}

func (m *menu) banner(ctx context.Context) error {
	host, err := m.target("Enter target IP or hostname: ")
	if err != nil {
		return err
	}
	raw, err := m.target("Enter port number: ")
	if err != nil {
		return err
	}
	port, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid port number %q, please enter an integer", raw)
	}
	if port < scanner.MinPort || port > scanner.MaxPort {
		return fmt.Errorf("invalid port number %d, must be between %d and %d", port, scanner.MinPort, scanner.MaxPort)
	}
	return m.a.grabBanner(ctx, host, port, 0)
}

func (m *menu) geo(ctx context.Context) error {
	ip, err := m.target("Enter IP address: ")
	if err != nil {
		return err
	}
	return m.a.geolocate(ctx, ip, false)
}
