// ABOUTME: Asset converter for imuse sound banks
// ABOUTME: Turns MP3, FLAC, Ogg Vorbis or raw PCM into an Opus pack or PCM file plus a JSON descriptor
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Resonate-Protocol/imuse-go/pkg/audio"
	"github.com/Resonate-Protocol/imuse-go/pkg/audio/decode"
	"github.com/Resonate-Protocol/imuse-go/pkg/audio/encode"
	"github.com/Resonate-Protocol/imuse-go/pkg/audio/resample"
	"github.com/Resonate-Protocol/imuse-go/pkg/sound"
	"github.com/dustin/go-humanize"
)

// opusPackRate is used when the source rate is not an Opus rate
const opusPackRate = 48000

type packConfig struct {
	in       string
	outDir   string
	name     string
	pcm      bool
	pcmBits  int
	bitrate  int
	rawRate  int
	rawChans int
	rawBits  int
	regions  string // comma separated region lengths in ms
	loop     int    // region the last region loops to, -1 for none
}

func main() {
	var cfg packConfig
	flag.StringVar(&cfg.in, "in", "", "Input asset (.mp3, .flac, .ogg, .raw, .pcm)")
	flag.StringVar(&cfg.outDir, "out", ".", "Output directory")
	flag.StringVar(&cfg.name, "name", "", "Sound name (default: input base name)")
	flag.BoolVar(&cfg.pcm, "pcm", false, "Write raw PCM instead of an Opus pack")
	flag.IntVar(&cfg.pcmBits, "pcm-bits", 16, "Bit depth of -pcm output (8, 16 or 24)")
	flag.IntVar(&cfg.bitrate, "bitrate", 96000, "Opus bitrate in bits per second")
	flag.IntVar(&cfg.rawRate, "rate", 22050, "Raw input sample rate")
	flag.IntVar(&cfg.rawChans, "channels", 1, "Raw input channels")
	flag.IntVar(&cfg.rawBits, "bits", 16, "Raw input bit depth")
	flag.StringVar(&cfg.regions, "regions", "", "Region lengths in ms, comma separated; the rest is one more region")
	flag.IntVar(&cfg.loop, "loop", -1, "Region the last region jumps back to (-1: no loop)")
	flag.Parse()

	if cfg.in == "" {
		flag.Usage()
		os.Exit(2)
	}

	desc, err := pack(cfg)
	if err != nil {
		log.Fatalf("Pack failed: %v", err)
	}
	size := "unknown size"
	if info, err := os.Stat(filepath.Join(cfg.outDir, desc.File)); err == nil {
		size = humanize.Bytes(uint64(info.Size()))
	}
	log.Printf("Wrote %s (%s) with %d regions", desc.File, size, len(desc.Regions))
}

// pack converts cfg.in and writes the asset and its descriptor
func pack(cfg packConfig) (*sound.Descriptor, error) {
	format := audio.Format{}
	if codec, _ := decode.CodecForPath(cfg.in); codec == "pcm" {
		format = audio.Format{Codec: "pcm", SampleRate: cfg.rawRate, Channels: cfg.rawChans, BitDepth: cfg.rawBits}
	}

	pcm, err := decode.File(cfg.in, format)
	if err != nil {
		return nil, err
	}
	log.Printf("Decoded %s: %d Hz, %d channels, %d frames",
		filepath.Base(cfg.in), pcm.Format.SampleRate, pcm.Format.Channels, pcm.Frames())

	name := cfg.name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(cfg.in), filepath.Ext(cfg.in))
	}

	desc := &sound.Descriptor{}
	if cfg.pcm {
		if cfg.pcmBits == 0 {
			cfg.pcmBits = 16
		}
		desc.File = name + ".raw"
		desc.Codec = "pcm"
		desc.SampleRate = pcm.Format.SampleRate
		desc.Channels = pcm.Format.Channels
		desc.Bits = cfg.pcmBits
		if err := writePCM(filepath.Join(cfg.outDir, desc.File), pcm, cfg.pcmBits); err != nil {
			return nil, err
		}
	} else {
		if !encode.IsOpusRate(pcm.Format.SampleRate) {
			log.Printf("Resampling %d Hz to %d Hz", pcm.Format.SampleRate, opusPackRate)
			pcm = &audio.PCM{
				Format:  audio.Format{Codec: pcm.Format.Codec, SampleRate: opusPackRate, Channels: pcm.Format.Channels, BitDepth: pcm.Format.BitDepth},
				Samples: resample.Convert(pcm.Samples, pcm.Format.SampleRate, opusPackRate, pcm.Format.Channels),
			}
		}
		desc.File = name + ".opk"
		f, err := os.Create(filepath.Join(cfg.outDir, desc.File))
		if err != nil {
			return nil, fmt.Errorf("create pack: %w", err)
		}
		if err := encode.WriteOpusPack(f, pcm, cfg.bitrate); err != nil {
			f.Close()
			return nil, err
		}
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("close pack: %w", err)
		}
	}

	regions, err := splitRegions(cfg.regions, pcm.Format.SampleRate, pcm.Frames())
	if err != nil {
		return nil, err
	}
	desc.Regions = regions
	if cfg.loop >= 0 {
		if cfg.loop >= len(regions) {
			return nil, fmt.Errorf("loop target %d outside %d regions", cfg.loop, len(regions))
		}
		desc.Jumps = []sound.JumpEntry{{Region: len(regions) - 1, Dest: cfg.loop}}
	}

	if err := sound.WriteDescriptor(filepath.Join(cfg.outDir, name+sound.DescriptorExt), desc); err != nil {
		return nil, err
	}
	return desc, nil
}

// splitRegions cuts frames into regions of the given millisecond lengths.
// The remainder, if any, becomes the last region.
func splitRegions(spec string, rate, frames int) ([]sound.Region, error) {
	var regions []sound.Region
	offset := 0
	if spec != "" {
		for _, part := range strings.Split(spec, ",") {
			ms, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || ms <= 0 {
				return nil, fmt.Errorf("invalid region length %q", part)
			}
			length := int(int64(ms) * int64(rate) / 1000)
			if offset+length > frames {
				return nil, fmt.Errorf("regions run past the end of the sound (%d frames)", frames)
			}
			regions = append(regions, sound.Region{Offset: offset, Length: length})
			offset += length
		}
	}
	if offset < frames || len(regions) == 0 {
		regions = append(regions, sound.Region{Offset: offset, Length: frames - offset})
	}
	return regions, nil
}

// writePCM stores pcm as raw little-endian samples at the given depth
func writePCM(path string, pcm *audio.PCM, bits int) error {
	enc, err := encode.NewPCM(audio.Format{Codec: "pcm", SampleRate: pcm.Format.SampleRate, Channels: pcm.Format.Channels, BitDepth: bits})
	if err != nil {
		return err
	}
	defer enc.Close()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create pcm: %w", err)
	}
	if _, err := encode.WriteAll(f, enc, pcm.Samples, 4096*pcm.Format.Channels); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close pcm: %w", err)
	}
	return nil
}
