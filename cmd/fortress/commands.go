package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/techfortress/fortress/pkg/config"
	"github.com/techfortress/fortress/pkg/input"
	"github.com/techfortress/fortress/pkg/web"
	"golang.org/x/time/rate"
)

func scanCmd() *cobra.Command {
	var flags ScanFlags
	var resolver string

	cmd := &cobra.Command{
		Use:   "scan [flags] <target>",
		Short: "TCP connect scan of a host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, opts, err := ResolveScanFlags(flags)
			if err != nil {
				return err
			}
			ctx, cancel := interruptible(cmd.Context())
			defer cancel()
			return tools.scan(ctx, args[0], ports, opts, resolver)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.Ports, "ports", "p", config.Scanner.MenuPorts, "Ports: 22 | 22,80,443 | 1-1024 | mixed")
	f.DurationVarP(&flags.Timeout, "timeout", "t", 0, "Connect timeout per port (default from FORTRESS_PROBE_TIMEOUT, 1s)")
	f.IntVarP(&flags.Concurrency, "concurrency", "c", 0, "Max concurrent probes (default from FORTRESS_PROBE_CONCURRENCY, 50)")
	f.IntVarP(&flags.Rate, "rate", "r", 0, "Max probe starts per second (0 = unlimited)")
	f.StringVar(&resolver, "resolver", "", `DNS server for the target lookup ("system" for the OS resolver)`)
	return cmd
}

func pingCmd() *cobra.Command {
	var flags PingFlags

	cmd := &cobra.Command{
		Use:   "ping [flags] <target>...",
		Short: "ICMP host discovery (IPs, CIDRs, hostnames)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, workers := ResolvePingConfig(flags)
			ctx, cancel := interruptible(cmd.Context())
			defer cancel()
			return tools.ping(ctx, args, cfg, workers)
		},
	}

	f := cmd.Flags()
	f.IntVar(&flags.Count, "count", 0, "Echo requests per host (default 1)")
	f.DurationVarP(&flags.Timeout, "timeout", "t", 0, "Wait for each reply (default 1s)")
	f.IntVarP(&flags.Workers, "workers", "w", 0, "Hosts pinged at once (default 100)")
	f.BoolVar(&flags.Unprivileged, "unprivileged", false, "Use UDP ping sockets instead of raw sockets (no root needed)")
	return cmd
}

func bannerCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "banner [flags] <host> <port>",
		Short: "Read the greeting of a TCP service",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid port number %q, please enter an integer", args[1])
			}
			ctx, cancel := interruptible(cmd.Context())
			defer cancel()
			return tools.grabBanner(ctx, args[0], port, timeout)
		},
	}

	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "Connect and read timeout (default 5s)")
	return cmd
}

func webCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "web <url>",
		Short: "Show HTTP headers and page title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := interruptible(cmd.Context())
			defer cancel()
			return tools.webInfo(ctx, args[0])
		},
	}
}

func dirsCmd() *cobra.Command {
	var (
		wordlist    string
		concurrency int
		perSecond   int
	)

	cmd := &cobra.Command{
		Use:   "dirs [flags] <base-url>",
		Short: "Check which common files and directories exist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, source, err := input.WordlistOrDefault(wordlist, input.DefaultPathWordlist, input.CommonPaths)
			if err != nil {
				return err
			}
			tools.con.Infof("Using wordlist: %s", source)

			opts := web.DefaultBustOptions()
			if concurrency > 0 {
				opts.Concurrency = concurrency
			}
			if perSecond > 0 {
				opts.Limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
			}

			ctx, cancel := interruptible(cmd.Context())
			defer cancel()
			return tools.dirs(ctx, args[0], paths, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&wordlist, "wordlist", "w", "", "Path wordlist (default SecLists common.txt, else built-in)")
	f.IntVarP(&concurrency, "concurrency", "c", 0, "Concurrent requests (default 10)")
	f.IntVarP(&perSecond, "rate", "r", 0, "Max requests per second (0 = unlimited)")
	return cmd
}

func subdomainsCmd() *cobra.Command {
	var wordlist, resolver string

	cmd := &cobra.Command{
		Use:   "subdomains [flags] <domain>",
		Short: "Resolve candidate subdomains from a wordlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			words, source, err := input.WordlistOrDefault(wordlist, input.DefaultSubdomainWordlist, input.CommonSubdomains)
			if err != nil {
				return err
			}
			tools.con.Infof("Using wordlist: %s", source)

			ctx, cancel := interruptible(cmd.Context())
			defer cancel()
			return tools.subdomains(ctx, args[0], words, resolver)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&wordlist, "wordlist", "w", "", "Subdomain wordlist (default SecLists top 5000, else built-in)")
	f.StringVar(&resolver, "resolver", "", `DNS server to query ("system" for the OS resolver)`)
	return cmd
}

func geoCmd() *cobra.Command {
	var withWhois bool

	cmd := &cobra.Command{
		Use:   "geo [flags] <ip>",
		Short: "Approximate location of an IP address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := interruptible(cmd.Context())
			defer cancel()
			return tools.geolocate(ctx, args[0], withWhois)
		},
	}

	cmd.Flags().BoolVar(&withWhois, "whois", false, "Append a WHOIS excerpt")
	return cmd
}

func menuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Interactive numbered menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMenu(cmd.Context(), tools, stdinRead)
		},
	}
}
