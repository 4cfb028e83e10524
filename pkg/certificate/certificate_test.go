package certificate

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() Document {
	return Document{
		Number:        "UMG-1-2",
		RecipientName: "Aline Uwase",
		ProjectTitle:  "Tree Planting Initiative",
		ProjectDate:   time.Date(2025, 3, 29, 8, 0, 0, 0, time.UTC),
		LeaderName:    "Jean Mugabo",
	}
}

func TestRenderer_Render(t *testing.T) {
	r := NewRenderer(Layout{})

	data, err := r.Render(sampleDocument())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")), "输出应为 PDF")
	assert.Greater(t, len(data), 1000)
}

func TestRenderer_RenderNonASCIIName(t *testing.T) {
	r := NewRenderer(DefaultLayout())
	doc := sampleDocument()
	doc.RecipientName = "Éric Niyonzima"

	_, err := r.Render(doc)
	require.NoError(t, err)
}

func TestRenderer_RenderIncomplete(t *testing.T) {
	r := NewRenderer(DefaultLayout())

	doc := sampleDocument()
	doc.RecipientName = ""
	_, err := r.Render(doc)
	assert.ErrorIs(t, err, ErrIncompleteDocument)

	doc = sampleDocument()
	doc.Number = ""
	_, err = r.Render(doc)
	assert.ErrorIs(t, err, ErrIncompleteDocument)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "certificates/certificate_2_1.pdf", FileName(2, 1))
}

func TestFramedQR(t *testing.T) {
	data, err := framedQR("UMG-1-2", 200)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}
