package input

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techfortress/fortress/pkg/scanner"
)

func TestParsePorts(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		want    []int
		wantErr bool
	}{
		{name: "Single", spec: "22", want: []int{22}},
		{name: "List", spec: "443,22,80", want: []int{22, 80, 443}},
		{name: "Range", spec: "20-25", want: []int{20, 21, 22, 23, 24, 25}},
		{name: "Mixed with overlap", spec: "80, 78-81 ,22", want: []int{22, 78, 79, 80, 81}},
		{name: "Bounds", spec: "1,65535", want: []int{1, 65535}},
		{name: "Empty", spec: "  ", wantErr: true},
		{name: "Zero", spec: "0", wantErr: true},
		{name: "Too large", spec: "65536", wantErr: true},
		{name: "Reversed range", spec: "100-10", wantErr: true},
		{name: "Open range", spec: "100-", wantErr: true},
		{name: "Garbage", spec: "http", wantErr: true},
		{name: "Trailing comma", spec: "22,", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePorts(tt.spec)

			if tt.wantErr {
				var portErr *scanner.InvalidPortError
				assert.True(t, errors.As(err, &portErr), "expected InvalidPortError, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePortsFullRange(t *testing.T) {
	ports, err := ParsePorts("1-65535")
	require.NoError(t, err)
	assert.Len(t, ports, 65535)
}

func TestParseTargets(t *testing.T) {
	tests := []struct {
		name      string
		targets   []string
		wantIPs   int
		wantHosts []string
		wantErr   bool
	}{
		{name: "Single IP", targets: []string{"192.168.1.1"}, wantIPs: 1},
		{name: "Comma-separated", targets: []string{"192.168.1.1,192.168.1.2,example.com"}, wantIPs: 2, wantHosts: []string{"example.com"}},
		{name: "Small CIDR", targets: []string{"192.168.1.0/30"}, wantIPs: 4},
		{name: "Hostname normalized", targets: []string{"WWW.Example.COM."}, wantHosts: []string{"www.example.com"}},
		{name: "IPv6", targets: []string{"2001:db8::1"}, wantIPs: 1},
		{name: "Invalid CIDR", targets: []string{"192.168.1.0/99"}, wantErr: true},
		{name: "Oversized CIDR", targets: []string{"10.0.0.0/8"}, wantErr: true},
		{name: "Invalid host", targets: []string{"bad host!"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTargets(tt.targets)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got.IPs, tt.wantIPs)
			assert.Equal(t, tt.wantHosts, got.Hosts)
			assert.Equal(t, tt.wantIPs+len(tt.wantHosts), got.Len())
		})
	}
}

func TestParseIP(t *testing.T) {
	ip, err := ParseIP(" 8.8.8.8 ")
	require.NoError(t, err)
	assert.Equal(t, "8.8.8.8", ip.String())

	_, err = ParseIP("8.8.8")
	assert.Error(t, err)
}

func TestIsHostname(t *testing.T) {
	assert.True(t, IsHostname("example.com"))
	assert.True(t, IsHostname("_dmarc.example.com"))
	assert.True(t, IsHostname("localhost"))
	assert.False(t, IsHostname(""))
	assert.False(t, IsHostname("-bad.example.com"))
	assert.False(t, IsHostname("a..b"))
	assert.False(t, IsHostname(strings.Repeat("a", 64)+".com"))
}

func TestIPRangeStopsEarly(t *testing.T) {
	seq, err := IPRange("10.0.0.0/24")
	require.NoError(t, err)

	var got []string
	for ip := range seq {
		got = append(got, ip.String())
		if len(got) == 3 {
			break
		}
	}
	assert.Equal(t, []string{"10.0.0.0", "10.0.0.1", "10.0.0.2"}, got)
}

func TestIncrementIP(t *testing.T) {
	tests := []struct {
		name string
		ip   []byte
		want []byte
	}{
		{name: "Simple increment", ip: []byte{192, 168, 1, 1}, want: []byte{192, 168, 1, 2}},
		{name: "Rollover last octet", ip: []byte{192, 168, 1, 255}, want: []byte{192, 168, 2, 0}},
		{name: "Rollover second octet", ip: []byte{192, 168, 255, 255}, want: []byte{192, 169, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			incrementIP(tt.ip)
			assert.Equal(t, tt.want, tt.ip)
		})
	}
}

func TestLoadWordlist(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "words.txt")
	content := `# Test words
www

  api
mail
www
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Run("Valid file", func(t *testing.T) {
		words, err := LoadWordlist(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"www", "api", "mail"}, words)
	})

	t.Run("Non-existent file", func(t *testing.T) {
		_, err := LoadWordlist(filepath.Join(dir, "missing.txt"))
		assert.Error(t, err)
	})

	t.Run("Only comments", func(t *testing.T) {
		empty := filepath.Join(dir, "empty.txt")
		require.NoError(t, os.WriteFile(empty, []byte("# nothing\n\n"), 0o644))
		_, err := LoadWordlist(empty)
		assert.ErrorContains(t, err, "empty")
	})
}

func TestWordlistOrDefault(t *testing.T) {
	dir := t.TempDir()
	custom := filepath.Join(dir, "custom.txt")
	require.NoError(t, os.WriteFile(custom, []byte("one\ntwo\n"), 0o644))

	words, source, err := WordlistOrDefault(custom, "/nonexistent", CommonPaths)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, words)
	assert.Equal(t, custom, source)

	words, source, err = WordlistOrDefault("", filepath.Join(dir, "absent.txt"), CommonSubdomains)
	require.NoError(t, err)
	assert.Equal(t, CommonSubdomains, words)
	assert.Equal(t, "built-in", source)

	_, _, err = WordlistOrDefault(filepath.Join(dir, "absent.txt"), "", nil)
	assert.Error(t, err)
}
