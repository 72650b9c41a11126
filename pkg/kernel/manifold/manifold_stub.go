//go:build !manifold

// Package manifold provides a CGo-based geometry kernel binding to the
// Manifold library. Without the "manifold" build tag New reports that the
// backend is unavailable and callers fall back to sdfx.
//
// Build with: go build -tags=manifold
package manifold

import (
	"errors"

	"github.com/chazu/vesselkit/pkg/kernel"
)

// ErrUnavailable is returned by New when the binary was built without
// the manifold tag.
var ErrUnavailable = errors.New("manifold kernel not available: build with -tags=manifold")

// New returns ErrUnavailable.
func New() (kernel.Kernel, error) {
	return nil, ErrUnavailable
}
