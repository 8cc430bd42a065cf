package report

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPrintParams(t *testing.T) {
	p := printParams(&RenderRequest{Landscape: true})

	assert.True(t, p.PrintBackground)
	assert.True(t, p.Landscape)
	assert.True(t, p.DisplayHeaderFooter)
	assert.InDelta(t, 8.27, p.PaperWidth, 0.01)
	assert.InDelta(t, 11.69, p.PaperHeight, 0.01)
	assert.InDelta(t, 0.47, p.MarginTop, 0.01)
	assert.Contains(t, p.FooterTemplate, "pageNumber")
}

func TestChromedpRenderer_RejectsEmptyHTML(t *testing.T) {
	r := NewChromedpRenderer(ChromedpConfig{}, zap.NewNop())
	defer r.Close()

	_, err := r.Render(context.Background(), &RenderRequest{HTML: "   "})
	require.Error(t, err)

	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)
}

func TestChromedpRenderer_DefaultTimeout(t *testing.T) {
	r := NewChromedpRenderer(ChromedpConfig{}, zap.NewNop())
	defer r.Close()
	assert.Equal(t, defaultChromeTimeout, r.config.DefaultTimeout)
}

// Launches a real browser; set CRM_CHROME_TESTS=1 to run.
func TestChromedpRenderer_RendersPDF(t *testing.T) {
	if os.Getenv("CRM_CHROME_TESTS") == "" {
		t.Skip("set CRM_CHROME_TESTS=1 to run chrome rendering tests")
	}
	r := NewChromedpRenderer(ChromedpConfig{
		ExecPath:  os.Getenv("CRM_CHROME_PATH"),
		NoSandbox: true,
	}, zap.NewNop())
	defer r.Close()

	html, err := RenderPipelineHTML(sampleReport())
	require.NoError(t, err)

	res, err := r.Render(context.Background(), &RenderRequest{
		HTML:    string(html),
		Title:   "pipeline",
		Timeout: time.Minute,
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(res.PDFData, []byte("%PDF")))
	assert.Positive(t, res.RenderDuration)
}
