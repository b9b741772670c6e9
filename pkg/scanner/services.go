package scanner

import (
	"bufio"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/techfortress/fortress/pkg/config"
)

// Fallback names for hosts without a services database
var wellKnownServices = map[int]string{
	20:    "ftp-data",
	21:    "ftp",
	22:    "ssh",
	23:    "telnet",
	25:    "smtp",
	53:    "domain",
	67:    "bootps",
	69:    "tftp",
	80:    "http",
	88:    "kerberos",
	110:   "pop3",
	111:   "sunrpc",
	119:   "nntp",
	123:   "ntp",
	135:   "epmap",
	137:   "netbios-ns",
	139:   "netbios-ssn",
	143:   "imap",
	161:   "snmp",
	179:   "bgp",
	389:   "ldap",
	443:   "https",
	445:   "microsoft-ds",
	465:   "submissions",
	514:   "shell",
	587:   "submission",
	631:   "ipp",
	636:   "ldaps",
	853:   "domain-s",
	873:   "rsync",
	993:   "imaps",
	995:   "pop3s",
	1433:  "ms-sql-s",
	1521:  "ncube-lm",
	2049:  "nfs",
	3306:  "mysql",
	3389:  "ms-wbt-server",
	5353:  "mdns",
	5432:  "postgresql",
	5900:  "vnc",
	6379:  "redis",
	8080:  "http-alt",
	8443:  "https-alt",
	9200:  "wap-wsp",
	27017: "mongodb",
}

var (
	services     map[int]string
	servicesOnce sync.Once
)

// ServiceName returns the registered TCP service name for port, if any
func ServiceName(port int) (string, bool) {
	servicesOnce.Do(loadServices)
	name, ok := services[port]
	return name, ok
}

// loadServices merges the system services database over the built-in table
func loadServices() {
	services = make(map[int]string, len(wellKnownServices))
	for port, name := range wellKnownServices {
		services[port] = name
	}

	path := config.Scanner.ServicesFile
	if path == "" {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		slog.Debug("services database unavailable", "path", path, "error", err)
		return
	}
	defer f.Close()

	for port, name := range parseServices(bufio.NewScanner(f)) {
		services[port] = name
	}
}

// parseServices reads services(5) lines, keeping the first tcp name per port
func parseServices(sc *bufio.Scanner) map[int]string {
	out := make(map[int]string)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		portStr, proto, ok := strings.Cut(fields[1], "/")
		if !ok || proto != "tcp" {
			continue
		}
		port, err := strconv.Atoi(portStr)
		if err != nil || port < MinPort || port > MaxPort {
			continue
		}
		if _, seen := out[port]; !seen {
			out[port] = fields[0]
		}
	}
	return out
}
