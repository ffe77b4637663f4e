package codec

import (
	"testing"

	"github.com/pixel-editor/backend/internal/models"
	"github.com/pixel-editor/backend/internal/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() models.SerializedProject {
	s := project.New(project.WithName("sprite"))
	s.DrawPixel(1, 1)
	s.SelectColor(130)
	s.DrawLine(0, 3, 3, 3)
	_, _ = s.AddFrame()
	return s.Document()
}

func TestEncodeDecode(t *testing.T) {
	doc := sampleDocument()

	for _, f := range []Format{FormatJSON, FormatMsgpack, FormatYAML} {
		t.Run(string(f), func(t *testing.T) {
			data, err := Encode(f, doc)
			require.NoError(t, err)
			require.NotEmpty(t, data)

			got, err := Decode(f, data)
			require.NoError(t, err)
			assert.Equal(t, doc, got)
		})
	}
}

func TestYAMLUsesProjectFieldNames(t *testing.T) {
	data, err := Encode(FormatYAML, sampleDocument())
	require.NoError(t, err)
	assert.Contains(t, string(data), "canvasWidth: 32")
	assert.Contains(t, string(data), "colorIndex: 130")
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(FormatJSON, []byte("{"))
	assert.Error(t, err)
	_, err = Decode(FormatMsgpack, []byte{0xc1})
	assert.Error(t, err)
	_, err = Decode(FormatYAML, []byte("name: [unterminated"))
	assert.Error(t, err)
	_, err = Decode(Format("bmp"), []byte("x"))
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"msgpack", FormatMsgpack, false},
		{"png", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatFromName(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromName("hero.yaml"))
	assert.Equal(t, FormatMsgpack, FormatFromName("hero.msgpack"))
	assert.Equal(t, FormatJSON, FormatFromName("hero.json"))
	assert.Equal(t, FormatJSON, FormatFromName("hero"))
	assert.Equal(t, "application/yaml", FormatYAML.ContentType())
	assert.Equal(t, ".msgpack", FormatMsgpack.Extension())
}
