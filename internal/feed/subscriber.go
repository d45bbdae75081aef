// Package feed receives price datagrams from the forex publisher over UDP.
package feed

import (
	"errors"
	"fmt"
	"net"
	"time"

	"fxarb/internal/fxp"
)

var ErrPollTimeout = errors.New("no datagram within poll interval")

// ConnectionError is a receive failure the socket cannot recover from.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string { return "feed connection: " + e.Err.Error() }
func (e *ConnectionError) Unwrap() error { return e.Err }

type Options struct {
	ListenAddr    string
	AdvertiseHost string
	BufferSize    int
	PollInterval  time.Duration
}

// Subscriber owns the listening socket. Receive is meant to be called from a
// single goroutine.
type Subscriber struct {
	conn      *net.UDPConn
	advertise *net.UDPAddr
	buf       []byte
	poll      time.Duration
}

func Listen(opts Options) (*Subscriber, error) {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 4096
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 200 * time.Millisecond
	}
	laddr, err := net.ResolveUDPAddr("udp4", opts.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve listen address %q: %w", opts.ListenAddr, err)
	}
	conn, err := net.ListenUDP("udp4", laddr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", laddr, err)
	}
	bound := conn.LocalAddr().(*net.UDPAddr)
	adv := &net.UDPAddr{IP: bound.IP, Port: bound.Port}
	if opts.AdvertiseHost != "" {
		ip := net.ParseIP(opts.AdvertiseHost)
		if ip == nil {
			_ = conn.Close()
			return nil, fmt.Errorf("advertise host %q is not an IP address", opts.AdvertiseHost)
		}
		adv.IP = ip
	}
	return &Subscriber{conn: conn, advertise: adv, buf: make([]byte, opts.BufferSize), poll: opts.PollInterval}, nil
}

// Addr is the address announced to the publisher.
func (s *Subscriber) Addr() *net.UDPAddr { return s.advertise }

// Register asks the publisher to start sending quotes to this subscriber.
func (s *Subscriber) Register(publisher *net.UDPAddr) error {
	msg, err := fxp.SerializeAddress(s.advertise)
	if err != nil {
		return err
	}
	if _, err := s.conn.WriteToUDP(msg, publisher); err != nil {
		return fmt.Errorf("register with %s: %w", publisher, err)
	}
	return nil
}

// Receive waits up to the poll interval for one datagram. The returned slice
// is only valid until the next call.
func (s *Subscriber) Receive() ([]byte, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.poll)); err != nil {
		return nil, &ConnectionError{Err: err}
	}
	n, _, err := s.conn.ReadFromUDP(s.buf)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil, ErrPollTimeout
		}
		return nil, &ConnectionError{Err: err}
	}
	return s.buf[:n], nil
}

func (s *Subscriber) Close() error { return s.conn.Close() }
