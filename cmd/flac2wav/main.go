// Command flac2wav decodes a FLAC file into an uncompressed WAV file.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/pchchv/flacdec"
	"github.com/pchchv/flacdec/wavout"
)

var (
	outPath = flag.String("o", "", "output WAV path (default: input path with .wav extension)")
	quiet   = flag.Bool("q", false, "suppress progress output")
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: flac2wav [OPTION]... FILE.flac")
	flag.PrintDefaults()
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("flac2wav: ")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	inPath := flag.Arg(0)
	dst := *outPath
	if dst == "" {
		dst = strings.TrimSuffix(inPath, ".flac") + ".wav"
	}

	if err := decode(inPath, dst); err != nil {
		log.Fatal(err)
	}
}

// decode decodes the FLAC file at srcPath and
// writes the decoded audio samples to a WAV file at dstPath.
func decode(srcPath, dstPath string) error {
	stream, err := flacdec.Open(srcPath)
	if err != nil {
		return err
	}
	defer stream.Close()

	f, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := wavout.NewWriter(f, stream.Info)
	if err != nil {
		return err
	}

	for {
		fr, err := stream.ParseNext()
		if err == io.EOF {
			break
		} else if err != nil {
			return err
		}

		if err := w.WriteFrame(fr); err != nil {
			return err
		}
	}

	if err := w.Close(); err != nil {
		return err
	}

	if !*quiet {
		info := stream.Info
		log.Printf("%s: %d Hz, %d channels, %d bits-per-sample, %d samples", dstPath, info.SampleRate, info.NChannels, info.BitsPerSample, w.NSamples())
	}

	return f.Close()
}
