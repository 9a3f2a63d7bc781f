// Package scan checks uploaded files for malware before they are stored.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dutchcoders/go-clamd"
)

// ErrInfected is returned when the scanner flags the stream.
var ErrInfected = errors.New("malicious file detected")

// Scanner inspects a stream.
type Scanner interface {
	Scan(ctx context.Context, r io.Reader) error
}

// Clamd scans through a clamd daemon.
type Clamd struct {
	client *clamd.Clamd
}

// NewClamd returns a scanner for addr, e.g. "tcp://clamav:3310".
func NewClamd(addr string) *Clamd {
	return &Clamd{client: clamd.NewClamd(addr)}
}

func (s *Clamd) Scan(ctx context.Context, r io.Reader) error {
	abort := make(chan bool)
	defer close(abort)

	results, err := s.client.ScanStream(r, abort)
	if err != nil {
		return fmt.Errorf("clamd scan: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res, ok := <-results:
			if !ok {
				return nil
			}
			switch res.Status {
			case clamd.RES_OK:
			case clamd.RES_FOUND:
				return fmt.Errorf("%w: %s", ErrInfected, res.Description)
			default:
				return fmt.Errorf("clamd scan: %s %s", res.Status, res.Description)
			}
		}
	}
}

// Nop accepts every stream. It is used when no daemon is configured.
type Nop struct{}

func (Nop) Scan(context.Context, io.Reader) error { return nil }

// New picks clamd when an address is configured.
func New(addr string) Scanner {
	if addr == "" {
		return Nop{}
	}
	return NewClamd(addr)
}
