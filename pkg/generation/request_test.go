package generation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pngDataURL = "data:image/png;base64,iVBORw0KGgo="

func TestNormalizeAppliesDefaults(t *testing.T) {
	p, err := Normalize(Request{ImageData: pngDataURL})
	require.NoError(t, err)

	assert.Equal(t, pngDataURL, p.ImageURL)
	assert.Equal(t, "Make this image come alive with smooth, loopable motion", p.Prompt)
	assert.Equal(t, QualitySpeed, p.Quality)
	assert.Equal(t, 5, p.Duration)
	assert.Equal(t, 30, p.FPS)
	assert.Equal(t, "1024x1024", p.Size)
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	p, err := Normalize(Request{
		ImageData: pngDataURL,
		Prompt:    "waves crash",
		Quality:   "quality",
		Duration:  10,
		FPS:       60,
		Size:      "1920x1080",
	})
	require.NoError(t, err)

	assert.Equal(t, Params{
		ImageURL: pngDataURL,
		Prompt:   "waves crash",
		Quality:  QualityQuality,
		Duration: 10,
		FPS:      60,
		Size:     "1920x1080",
	}, p)
}

func TestNormalizeRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		req   Request
		field string
	}{
		{"missing image", Request{}, "imageData"},
		{"blank image", Request{ImageData: "   "}, "imageData"},
		{"not a data url", Request{ImageData: "https://example.com/cat.png"}, "imageData"},
		{"non image mime", Request{ImageData: "data:text/plain;base64,aGk="}, "imageData"},
		{"not base64", Request{ImageData: "data:image/png,raw"}, "imageData"},
		{"empty payload", Request{ImageData: "data:image/png;base64,"}, "imageData"},
		{"bad quality", Request{ImageData: pngDataURL, Quality: "ultra"}, "quality"},
		{"bad duration", Request{ImageData: pngDataURL, Duration: 7}, "duration"},
		{"bad fps", Request{ImageData: pngDataURL, FPS: 24}, "fps"},
		{"bad size", Request{ImageData: pngDataURL, Size: "640x480"}, "size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.req)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestParseDataURL(t *testing.T) {
	mimeType, payload, err := ParseDataURL("data:image/webp;name=a.webp;base64,UklGRg==")
	require.NoError(t, err)
	assert.Equal(t, "image/webp", mimeType)
	assert.Equal(t, "UklGRg==", payload)

	assert.Equal(t, "data:image/gif;base64,R0lG", EncodeDataURL("image/gif", []byte("GIF")))
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, StatusPending, NormalizeStatus(""))
	assert.Equal(t, StatusProcessing, NormalizeStatus("processing"))
	assert.Equal(t, StatusSuccess, NormalizeStatus("SUCCESS"))
	assert.Equal(t, StatusFail, NormalizeStatus(" fail "))
	assert.Equal(t, StatusProcessing, NormalizeStatus("QUEUED"))
	assert.True(t, StatusFail.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, 400, HTTPStatus(&ValidationError{Msg: "x"}))
	assert.Equal(t, 500, HTTPStatus(&ProviderError{Op: "submit"}))
	assert.Equal(t, 500, HTTPStatus(errors.New("boom")))
}

func TestProviderErrorMessage(t *testing.T) {
	inner := &ProviderError{Op: "submit", Message: "quota exceeded"}
	err := NewProviderError("submit", inner)
	assert.Equal(t, "quota exceeded", err.Error())
	assert.ErrorIs(t, err, inner)

	assert.Equal(t, "failed to query task status", NewProviderError("query", errors.New("dial")).Error())
}

func TestTimeoutErrorMessage(t *testing.T) {
	err := &TimeoutError{Elapsed: 600_000_000_000}
	assert.Contains(t, err.Error(), "10.0 minutes")
	assert.Contains(t, err.Error(), `"speed"`)
}

func TestNormalizeForwardsPromptVerbatim(t *testing.T) {
	p, err := Normalize(Request{ImageData: "data:image/png;base64,AA==", Prompt: "  slow zoom \n"})
	require.NoError(t, err)
	assert.Equal(t, "  slow zoom \n", p.Prompt)

	p, err = Normalize(Request{ImageData: "data:image/png;base64,AA==", Prompt: "   "})
	require.NoError(t, err)
	assert.Equal(t, DefaultPrompt, p.Prompt)
}
