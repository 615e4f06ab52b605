package cli

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/faceguard/internal/auth"
)

func TestFileProbeCapturer_ReadsImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probe.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg-bytes"), 0o600))

	var out bytes.Buffer
	c := NewFileProbeCapturer(bufio.NewReader(strings.NewReader(path+"\n")), &out)

	probe, err := c.CaptureProbe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), probe)
}

func TestFileProbeCapturer_EmptyPathIsCancel(t *testing.T) {
	var out bytes.Buffer
	c := NewFileProbeCapturer(bufio.NewReader(strings.NewReader("\n")), &out)

	_, err := c.CaptureProbe(context.Background())
	assert.ErrorIs(t, err, auth.ErrFaceCaptureCancelled)
}

func TestFileProbeCapturer_MissingFile(t *testing.T) {
	var out bytes.Buffer
	c := NewFileProbeCapturer(bufio.NewReader(strings.NewReader("/no/such/file\n")), &out)

	_, err := c.CaptureProbe(context.Background())
	assert.Error(t, err)
}

func TestFileProbeCapturer_ContextCancelled(t *testing.T) {
	var out bytes.Buffer
	c := NewFileProbeCapturer(bufio.NewReader(strings.NewReader("x\n")), &out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.CaptureProbe(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
