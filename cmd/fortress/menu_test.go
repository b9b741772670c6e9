package main

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techfortress/fortress/pkg/config"
	"github.com/techfortress/fortress/pkg/output"
)

func testApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return newApp(output.NewConsole(&buf, false), false), &buf
}

func runMenuInput(t *testing.T, in string) string {
	t.Helper()
	a, buf := testApp(t)
	require.NoError(t, runMenu(context.Background(), a, strings.NewReader(in)))
	return buf.String()
}

func TestMenu_Exit(t *testing.T) {
	out := runMenuInput(t, "0\n")

	assert.Contains(t, out, "Tech Fortress Reconnaissance Toolkit")
	assert.Contains(t, out, "Enter your choice (0-7): ")
	assert.Contains(t, out, "[*] Exiting Tech Fortress. Stay safe and ethical, comrade!")
}

func TestMenu_EOFExits(t *testing.T) {
	out := runMenuInput(t, "")
	assert.Contains(t, out, "Exiting Tech Fortress")
}

func TestMenu_InvalidChoice(t *testing.T) {
	out := runMenuInput(t, "9\nabc\n0\n")

	assert.Contains(t, out, `[!] Invalid choice "9"`)
	assert.Contains(t, out, `[!] Invalid choice "abc"`)
	assert.Equal(t, 3, strings.Count(out, "Enter your choice"))
}

func TestMenu_EmptyTarget(t *testing.T) {
	for _, choice := range []string{"1", "2", "3", "4", "5", "6", "7"} {
		t.Run("choice "+choice, func(t *testing.T) {
			out := runMenuInput(t, choice+"\n\n0\n")
			assert.Contains(t, out, "[!] no target entered")
			assert.Contains(t, out, output.Separator)
		})
	}
}

func TestMenu_BannerPortValidation(t *testing.T) {
	out := runMenuInput(t, "6\nlocalhost\nabc\n0\n")
	assert.Contains(t, out, `[!] invalid port number "abc", please enter an integer`)

	out = runMenuInput(t, "6\nlocalhost\n70000\n0\n")
	assert.Contains(t, out, "[!] invalid port number 70000, must be between 1 and 65535")
}

func TestMenu_InputEndsMidAction(t *testing.T) {
	// the target prompt hits EOF: no error line, just exit
	out := runMenuInput(t, "2\n")
	assert.NotContains(t, out, "[!]")
	assert.Contains(t, out, "Exiting Tech Fortress")
}

func TestMenu_Scan(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	port := ln.Addr().(*net.TCPAddr).Port

	t.Cleanup(config.Init)
	t.Setenv("FORTRESS_MENU_PORTS", strconv.Itoa(port))
	config.Init()

	out := runMenuInput(t, "2\n127.0.0.1\n0\n")

	assert.Contains(t, out, fmt.Sprintf("Port scan (TCP, %d)", port))
	assert.Contains(t, out, "Scanning 127.0.0.1: 1 ports")
	assert.Contains(t, out, fmt.Sprintf("[+] Port %d", port))
	assert.Contains(t, out, "1 open, 0 closed, 0 filtered, 0 errors")
}

func TestMenu_CanceledParent(t *testing.T) {
	a, _ := testApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runMenu(ctx, a, strings.NewReader("1\n\n0\n"))
	assert.ErrorIs(t, err, context.Canceled)
}
