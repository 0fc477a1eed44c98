package printing

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChromedpRenderer_Defaults(t *testing.T) {
	r, err := NewChromedpRenderer(nil)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, defaultChromeTimeout, r.config.DefaultTimeout)
	assert.NotNil(t, r.logger)
	assert.NotNil(t, r.allocCtx)
}

func TestAllocatorOptions(t *testing.T) {
	base := len(allocatorOptions(&ChromedpConfig{}))

	withPath := allocatorOptions(&ChromedpConfig{ExecPath: "/usr/bin/chromium"})
	assert.Len(t, withPath, base+1)

	withBoth := allocatorOptions(&ChromedpConfig{ExecPath: "/usr/bin/chromium", NoSandbox: true})
	assert.Len(t, withBoth, base+2)
}

func TestChromedpRenderer_EmptyHTML(t *testing.T) {
	r, err := NewChromedpRenderer(&ChromedpConfig{DefaultTimeout: time.Second})
	require.NoError(t, err)
	defer r.Close()

	_, err = r.RenderPDF(context.Background(), "   ")
	require.Error(t, err)

	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)
}

func TestRenderError(t *testing.T) {
	cause := errors.New("tab crashed")
	err := NewRenderError(ErrCodeRenderFailed, "chromedp execution failed", cause)

	assert.Equal(t, "chromedp execution failed: tab crashed", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "generated PDF is empty", NewRenderError(ErrCodeRenderFailed, "generated PDF is empty", nil).Error())
}

func TestChromedpRenderer_RenderPDF(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	path := ""
	for _, name := range []string{"chromium", "chromium-browser", "google-chrome"} {
		if p, err := exec.LookPath(name); err == nil {
			path = p
			break
		}
	}
	if path == "" {
		t.Skip("no Chrome binary on PATH")
	}

	r, err := NewChromedpRenderer(&ChromedpConfig{ExecPath: path, NoSandbox: true})
	require.NoError(t, err)
	defer r.Close()

	pdf, err := r.RenderPDF(context.Background(), "<!DOCTYPE html><html><body><h1>Deed</h1></body></html>")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}
