package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/faceguard/internal/auth"
)

// FileProbeCapturer obtains a face probe by asking the user for the path
// of an image file. It stands in for a camera: capture is still
// human-in-the-loop and the user can abort by entering an empty path.
type FileProbeCapturer struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewFileProbeCapturer returns a capturer reading paths from reader.
func NewFileProbeCapturer(reader *bufio.Reader, out io.Writer) *FileProbeCapturer {
	return &FileProbeCapturer{reader: reader, out: out}
}

// CaptureProbe prompts for an image path and returns the file contents.
// An empty path is a user abort and returns ErrFaceCaptureCancelled.
func (c *FileProbeCapturer) CaptureProbe(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := GetSimpleText(c.reader, "Path to face image (empty to cancel)", c.out)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, auth.ErrFaceCaptureCancelled
	}

	probe, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading probe image: %w", err)
	}
	return probe, nil
}
