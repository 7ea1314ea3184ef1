package cloudio

import (
	"context"
	"io"

	"github.com/thespruceforge/cloudforge/pkg/pointcloud"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&E57Codec{})
}

// E57Codec recognises ASTM E57 files so they fail with a clear error.
// TODO: decode E57 once a Go reader for its XML section and compressed vector binary is available.
type E57Codec struct{}

func (E57Codec) Name() string         { return "E57" }
func (E57Codec) Extensions() []string { return []string{".e57"} }

func (E57Codec) Decode(ctx context.Context, path string) (*pointcloud.Cloud, Info, error) {
	return nil, Info{}, errors.Errorf("%w: E57", ErrNotImplemented)
}

func (E57Codec) Encode(ctx context.Context, w io.Writer, c *pointcloud.Cloud, opts EncodeOptions) error {
	return errors.Errorf("%w: E57", ErrReadOnly)
}
