package icmp

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// IANA protocol numbers used to parse replies
const (
	protocolICMP   = 1
	protocolICMPv6 = 58
)

// ErrNoReply is recorded when a host does not answer within the timeout
var ErrNoReply = errors.New("no reply")

// Pinger sends ICMP echo requests from one pair of sockets and matches
// replies to waiting callers
type Pinger struct {
	cfg Config
	id  int
	seq atomic.Uint32

	mu      sync.Mutex
	pending map[echoKey]*pendingEcho

	conn4  *icmp.PacketConn
	conn6  *icmp.PacketConn
	closed atomic.Bool
	wg     sync.WaitGroup
}

// NewPinger creates a pinger; call Start before pinging
func NewPinger(cfg Config) *Pinger {
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second
	}
	if cfg.Count <= 0 {
		cfg.Count = 1
	}
	if cfg.PayloadSize < 8 {
		cfg.PayloadSize = 56
	}

	return &Pinger{
		cfg:     cfg,
		id:      int(time.Now().UnixNano() & 0xffff),
		pending: make(map[echoKey]*pendingEcho),
	}
}

// Start opens the listening sockets. IPv6 is optional.
func (p *Pinger) Start() error {
	network4, network6 := "ip4:icmp", "ip6:ipv6-icmp"
	if !p.cfg.Privileged {
		network4, network6 = "udp4", "udp6"
	}

	var err error
	p.conn4, err = icmp.ListenPacket(network4, "0.0.0.0")
	if err != nil {
		if !p.cfg.Privileged {
			return fmt.Errorf("failed to open ping socket (check net.ipv4.ping_group_range): %w", err)
		}
		return fmt.Errorf("failed to open raw ICMP socket (needs root or CAP_NET_RAW, try --unprivileged): %w", err)
	}

	p.conn6, err = icmp.ListenPacket(network6, "::")
	if err != nil {
		slog.Debug("IPv6 ICMP unavailable", "error", err)
		p.conn6 = nil
	}

	p.wg.Go(func() { p.receive(p.conn4, false) })
	if p.conn6 != nil {
		p.wg.Go(func() { p.receive(p.conn6, true) })
	}

	return nil
}

// Stop closes the sockets and waits for the receivers to exit
func (p *Pinger) Stop() {
	if p.closed.Swap(true) {
		return
	}
	if p.conn4 != nil {
		p.conn4.Close()
	}
	if p.conn6 != nil {
		p.conn6.Close()
	}
	p.wg.Wait()
}

// Ping sends Count echo requests to ip and reports whether any reply arrived
func (p *Pinger) Ping(ctx context.Context, ip net.IP) *Result {
	result := &Result{IP: ip}

	var rtts []time.Duration
	var lastErr error
	for i := range p.cfg.Count {
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}

		rtt, err := p.echo(ctx, ip)
		result.Sent++
		if err != nil {
			lastErr = err
		} else {
			result.Received++
			rtts = append(rtts, rtt)
		}

		if i < p.cfg.Count-1 && p.cfg.Interval > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(p.cfg.Interval):
			}
		}
	}

	result.MinRTT, result.AvgRTT, result.MaxRTT = rttStats(rtts)
	result.Up = result.Received > 0
	if !result.Up && lastErr != nil {
		result.Err = lastErr.Error()
	}
	return result
}

// Sweep pings every address with at most workers in flight. Results keep
// the input order; hosts not started before ctx ends are omitted.
func (p *Pinger) Sweep(ctx context.Context, ips []net.IP, workers int) []*Result {
	if workers <= 0 {
		workers = 100
	}

	results := make([]*Result, len(ips))
	next := make(chan int)
	var wg sync.WaitGroup

	for range min(workers, len(ips)) {
		wg.Go(func() {
			for idx := range next {
				results[idx] = p.Ping(ctx, ips[idx])
			}
		})
	}

feed:
	for i := range ips {
		select {
		case <-ctx.Done():
			break feed
		case next <- i:
		}
	}
	close(next)
	wg.Wait()

	return slices.DeleteFunc(results, func(r *Result) bool { return r == nil })
}

func (p *Pinger) echo(ctx context.Context, ip net.IP) (time.Duration, error) {
	isIPv6 := ip.To4() == nil
	conn := p.conn4
	if isIPv6 {
		if p.conn6 == nil {
			return 0, fmt.Errorf("IPv6 not available")
		}
		conn = p.conn6
	}
	if conn == nil {
		return 0, fmt.Errorf("pinger not started")
	}

	seq := int(p.seq.Add(1) & 0xffff)
	key := echoKey{ip: ip.String(), seq: seq}
	pe := &pendingEcho{reply: make(chan echoReply, 1)}

	msg, err := marshalEcho(p.id, seq, p.cfg.PayloadSize, isIPv6)
	if err != nil {
		return 0, err
	}

	var dst net.Addr = &net.IPAddr{IP: ip}
	if !p.cfg.Privileged {
		dst = &net.UDPAddr{IP: ip}
	}

	p.mu.Lock()
	pe.sentAt = time.Now()
	p.pending[key] = pe
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.pending, key)
		p.mu.Unlock()
	}()

	if _, err := conn.WriteTo(msg, dst); err != nil {
		return 0, fmt.Errorf("failed to send echo request: %w", err)
	}

	timer := time.NewTimer(p.cfg.Timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case r := <-pe.reply:
		return r.rtt, nil
	case <-timer.C:
		return 0, ErrNoReply
	}
}

func (p *Pinger) receive(conn *icmp.PacketConn, isIPv6 bool) {
	proto := protocolICMP
	if isIPv6 {
		proto = protocolICMPv6
	}
	buf := make([]byte, 1500)

	for !p.closed.Load() {
		_ = conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			continue
		}
		at := time.Now()

		// Unprivileged sockets rewrite the identifier, the kernel already filters for us
		seq, ok := parseEchoReply(proto, buf[:n], p.id, p.cfg.Privileged)
		if !ok {
			continue
		}

		key := echoKey{ip: peerIP(peer), seq: seq}
		p.mu.Lock()
		pe, ok := p.pending[key]
		p.mu.Unlock()
		if !ok {
			continue
		}

		select {
		case pe.reply <- echoReply{rtt: at.Sub(pe.sentAt)}:
		default:
		}
	}
}

// marshalEcho builds an echo request whose payload starts with the send time
func marshalEcho(id, seq, size int, isIPv6 bool) ([]byte, error) {
	var typ icmp.Type = ipv4.ICMPTypeEcho
	if isIPv6 {
		typ = ipv6.ICMPTypeEchoRequest
	}

	payload := make([]byte, max(size, 8))
	binary.BigEndian.PutUint64(payload, uint64(time.Now().UnixNano()))

	msg := &icmp.Message{
		Type: typ,
		Body: &icmp.Echo{ID: id, Seq: seq, Data: payload},
	}
	b, err := msg.Marshal(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ICMP message: %w", err)
	}
	return b, nil
}

// parseEchoReply returns the sequence number of an echo reply addressed to id
func parseEchoReply(proto int, b []byte, id int, checkID bool) (int, bool) {
	msg, err := icmp.ParseMessage(proto, b)
	if err != nil {
		return 0, false
	}
	if msg.Type != ipv4.ICMPTypeEchoReply && msg.Type != ipv6.ICMPTypeEchoReply {
		return 0, false
	}
	echo, ok := msg.Body.(*icmp.Echo)
	if !ok || (checkID && echo.ID != id) {
		return 0, false
	}
	return echo.Seq, true
}

func peerIP(addr net.Addr) string {
	switch a := addr.(type) {
	case *net.IPAddr:
		return a.IP.String()
	case *net.UDPAddr:
		return a.IP.String()
	}
	return ""
}

func rttStats(rtts []time.Duration) (lo, avg, hi time.Duration) {
	if len(rtts) == 0 {
		return 0, 0, 0
	}
	lo, hi = rtts[0], rtts[0]
	var total time.Duration
	for _, rtt := range rtts {
		total += rtt
		lo = min(lo, rtt)
		hi = max(hi, rtt)
	}
	return lo, total / time.Duration(len(rtts)), hi
}
