package banner

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techfortress/fortress/pkg/scanner"
)

// serve accepts one connection and hands it to handle
func serve(t *testing.T, handle func(net.Conn)) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn)
	}()

	return ln.Addr().(*net.TCPAddr).Port
}

type staticResolver map[string]string

func (r staticResolver) LookupIPAddr(_ context.Context, host string) ([]net.IPAddr, error) {
	if ip, ok := r[host]; ok {
		return []net.IPAddr{{IP: net.ParseIP(ip)}}, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
}

func TestGrabGreeting(t *testing.T) {
	port := serve(t, func(c net.Conn) {
		_, _ = c.Write([]byte("SSH-2.0-OpenSSH_9.6\r\n"))
	})

	res, err := Grab(context.Background(), "127.0.0.1", port, 2*time.Second)
	require.NoError(t, err)

	assert.Equal(t, "SSH-2.0-OpenSSH_9.6", res.Banner)
	assert.Equal(t, "ssh", res.Service)
	assert.Equal(t, "high", res.Confidence)
	assert.Equal(t, port, res.Port)
}

func TestGrabEmptyBanner(t *testing.T) {
	port := serve(t, func(net.Conn) {})

	res, err := Grab(context.Background(), "127.0.0.1", port, 2*time.Second)
	require.NoError(t, err)
	assert.Empty(t, res.Banner)
	assert.Nil(t, res.Lines())
	assert.Empty(t, res.Service)
}

func TestGrabRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	_, err = Grab(context.Background(), "127.0.0.1", port, time.Second)
	assert.ErrorIs(t, err, ErrRefused)
}

func TestGrabTimeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	port := serve(t, func(net.Conn) { <-release })

	_, err := Grab(context.Background(), "127.0.0.1", port, 200*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestGrabResolutionError(t *testing.T) {
	g := NewGrabber(time.Second)
	g.Resolver = staticResolver{}

	_, err := g.Grab(context.Background(), "nowhere.invalid", 22)
	var resErr *scanner.ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, "nowhere.invalid", resErr.Target)
}

func TestGrabInvalidPort(t *testing.T) {
	for _, port := range []int{0, -1, 65536} {
		_, err := Grab(context.Background(), "127.0.0.1", port, time.Second)
		var portErr *scanner.InvalidPortError
		assert.True(t, errors.As(err, &portErr), "port %d", port)
	}
}

func TestGrabSendsHTTPNudge(t *testing.T) {
	// Port 80 is nudged; redirect the dial to the test listener
	port := serve(t, func(c net.Conn) {
		line, _ := bufio.NewReader(c).ReadString('\n')
		_, _ = c.Write([]byte("HTTP/1.1 200 OK\r\nServer: nginx/1.25\r\nX-Request: " + line))
	})

	g := NewGrabber(2 * time.Second)
	g.Resolver = staticResolver{"web.test": "127.0.0.1"}
	g.Dialer = portRewriter{to: port}

	res, err := g.Grab(context.Background(), "web.test", 80)
	require.NoError(t, err)

	assert.Equal(t, "http/nginx", res.Service)
	lines := res.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, "HTTP/1.1 200 OK", lines[0])
	assert.Equal(t, "X-Request: GET / HTTP/1.1", lines[2])
	assert.Equal(t, 80, res.Port)
}

// portRewriter dials a fixed local port regardless of the requested one
type portRewriter struct{ to int }

func (p portRewriter) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	var d net.Dialer
	return d.DialContext(ctx, network, net.JoinHostPort(host, strconv.Itoa(p.to)))
}

func TestNudge(t *testing.T) {
	assert.Equal(t, "GET / HTTP/1.1\r\nHost: example.com\r\n\r\n", Nudge("example.com", 443))
	assert.Equal(t, "GET / HTTP/1.1\r\nHost: example.com\r\n\r\n", Nudge("example.com", 8000))
	assert.Equal(t, "HELP\r\n", Nudge("h", 21))
	assert.Equal(t, "EHLO fortress.local\r\n", Nudge("h", 587))
	assert.Empty(t, Nudge("h", 22))
	assert.Empty(t, Nudge("h", 23))
}

func TestDetect(t *testing.T) {
	tests := []struct {
		banner  string
		service string
		found   bool
	}{
		{banner: "SSH-2.0-OpenSSH_8.9p1 Ubuntu", service: "ssh", found: true},
		{banner: "HTTP/1.1 200 OK\r\nServer: Apache/2.4.58", service: "http/apache", found: true},
		{banner: "HTTP/1.0 404 Not Found", service: "http", found: true},
		{banner: "220 (vsFTPd 3.0.5)", service: "ftp", found: true},
		{banner: "220 mx.example.com ESMTP Postfix", service: "smtp", found: true},
		{banner: "+OK Dovecot ready.", service: "pop3", found: true},
		{banner: "* OK [CAPABILITY IMAP4rev1] ready", service: "imap", found: true},
		{banner: "220 welcome", service: "smtp", found: true},
		{banner: "hello", found: false},
		{banner: "", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.banner, func(t *testing.T) {
			service, _, found := Detect(tt.banner)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.service, service)
		})
	}
}
