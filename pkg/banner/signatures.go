package banner

import "strings"

// Substring signatures, most specific first. Matching is case-insensitive.
var signatures = []struct {
	substr     string
	service    string
	confidence string
}{
	{"ssh-", "ssh", "high"}, // "SSH-2.0-OpenSSH_9.6"
	{"nginx", "http/nginx", "high"},
	{"apache", "http/apache", "high"},
	{"microsoft-iis", "http/iis", "high"},
	{"http/", "http", "medium"}, // status line "HTTP/1.1 200 OK"
	{"ftp", "ftp", "high"},      // "220 ProFTPD Server", "220 (vsFTPd 3.0.5)"
	{"smtp", "smtp", "high"},    // "220 mx.example.com ESMTP Postfix"
	{"+ok", "pop3", "medium"},
	{"* ok", "imap", "medium"},
	{"mysql", "mysql", "medium"},
	{"redis", "redis", "medium"},
	{"220 ", "smtp", "low"}, // bare greeting, FTP and SMTP both use it
}

// Detect returns the service named by the first matching signature
func Detect(banner string) (service, confidence string, found bool) {
	if banner == "" {
		return "", "", false
	}
	lb := strings.ToLower(banner)
	for _, s := range signatures {
		if strings.Contains(lb, s.substr) {
			return s.service, s.confidence, true
		}
	}
	return "", "", false
}
