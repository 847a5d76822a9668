//go:build !unix

package spansource

import (
	"github.com/cockroachdb/errors"

	"github.com/joshuapare/rangekit/ra"
)

// Reservation is the owner handle of a span imported from Reserve.
type Reservation struct{}

// Bytes returns nil on this platform.
func (r *Reservation) Bytes() []byte { return nil }

// Reserve is unavailable on this platform; every import fails.
type Reserve struct{}

// NewReserve returns a source whose imports always fail.
func NewReserve(int) *Reserve { return &Reserve{} }

// NewAddressSpace returns a source whose imports always fail.
func NewAddressSpace() *Reserve { return &Reserve{} }

// Import always fails.
func (r *Reserve) Import(uint64, ra.Flags) (ra.Span, error) {
	return ra.Span{}, errors.New("spansource: address reservation not supported on this platform")
}

// Export does nothing.
func (r *Reserve) Export(ra.Span) {}

// Live always returns 0.
func (r *Reserve) Live() int { return 0 }
