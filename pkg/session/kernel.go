package session

import (
	"fmt"

	"github.com/chazu/vesselkit/pkg/kernel"
	"github.com/chazu/vesselkit/pkg/kernel/manifold"
	"github.com/chazu/vesselkit/pkg/kernel/sdfx"
	"github.com/rs/zerolog"
)

// OpenKernel returns the named geometry kernel. "manifold" falls back to
// sdfx when the binary was built without it. cells sets the sdfx marching
// cubes resolution.
func OpenKernel(name string, cells int, log zerolog.Logger) (kernel.Kernel, error) {
	switch name {
	case "", "sdfx":
		return sdfx.NewWithCells(cells), nil
	case "manifold":
		k, err := manifold.New()
		if err != nil {
			log.Warn().Err(err).Msg("falling back to sdfx kernel")
			return sdfx.NewWithCells(cells), nil
		}
		return k, nil
	}
	return nil, fmt.Errorf("unknown kernel %q", name)
}
