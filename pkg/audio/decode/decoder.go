// ABOUTME: Decoder interface and asset loading entry points
// ABOUTME: Picks a codec by name or file extension and decodes a whole asset
package decode

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Resonate-Protocol/imuse-go/pkg/audio"
)

// Decoder decodes chunks or packets of a stream to PCM int32 samples
type Decoder interface {
	// Decode converts encoded audio data to PCM samples
	Decode(data []byte) ([]int32, error)

	// Close releases decoder resources
	Close() error
}

// CodecForPath returns the codec implied by a file extension
func CodecForPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return "mp3", nil
	case ".flac":
		return "flac", nil
	case ".ogg":
		return "ogg", nil
	case ".opk":
		return "opus", nil
	case ".pcm", ".raw":
		return "pcm", nil
	}
	return "", fmt.Errorf("unknown audio file type: %s", path)
}

// Reader decodes a complete asset. format supplies the layout for raw PCM
// and is ignored by self-describing codecs.
func Reader(r io.Reader, format audio.Format) (*audio.PCM, error) {
	switch format.Codec {
	case "mp3":
		return DecodeMP3(r)
	case "flac":
		return DecodeFLAC(r)
	case "ogg":
		return DecodeOgg(r)
	case "opus":
		return DecodeOpusPack(r)
	case "pcm":
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read pcm: %w", err)
		}
		return DecodeRaw(data, format)
	}
	return nil, fmt.Errorf("unsupported codec: %s", format.Codec)
}

// File decodes the asset at path. Raw PCM files need their layout in
// format; other codecs are detected from the extension.
func File(path string, format audio.Format) (*audio.PCM, error) {
	if format.Codec == "" {
		codec, err := CodecForPath(path)
		if err != nil {
			return nil, err
		}
		format.Codec = codec
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}

	pcm, err := Reader(bytes.NewReader(data), format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return pcm, nil
}
