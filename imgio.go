package cryptor

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xfmoulet/qoi"
	_ "golang.org/x/image/bmp"
)

const qoiHeader = "qoif"

// imageFormat is a lossless format a carrier can be written in.
type imageFormat int

const (
	formatUnknown imageFormat = iota
	formatPNG
	formatQOI
)

func (f imageFormat) String() string {
	switch f {
	case formatPNG:
		return "png"
	case formatQOI:
		return "qoi"
	default:
		return "<unknown>"
	}
}

// outputFormat picks the encoder for outPath from its extension. Lossy formats would destroy the low bit
// planes, so they are refused. BMP can be read but not written: a 32-bit BMP is read back fully opaque, and
// the alpha channel carries payload bits.
func outputFormat(outPath string) (imageFormat, error) {
	switch ext := strings.ToLower(filepath.Ext(outPath)); ext {
	case ".png":
		return formatPNG, nil
	case ".qoi":
		return formatQOI, nil
	case ".jpg", ".jpeg", ".gif":
		return formatUnknown, &InvalidFormatError{fmt.Sprintf("The output format '%v' is lossy and would destroy the hidden file. Use .png or .qoi.", ext)}
	case ".bmp":
		return formatUnknown, &InvalidFormatError{"The output format '.bmp' does not keep the alpha channel the hidden file is stored in. Use .png or .qoi."}
	default:
		return formatUnknown, &InvalidFormatError{fmt.Sprintf("The output format '%v' is not supported. Use .png or .qoi.", ext)}
	}
}

// Primary methods

func loadImage(imgPath string, outputLevel OutputLevel) (img image.Image, err error) {
	imgFile, err := os.Open(imgPath)
	if err != nil {
		printlnLvl(outputLevel, OutputSteps, "Unable to open the image!", err.Error())
		return nil, err
	}

	defer func() {
		if cerr := imgFile.Close(); cerr != nil {
			printlnLvl(outputLevel, OutputSteps, fmt.Sprintf("Error closing the file '%v': %v", imgPath, cerr.Error()))
		}
	}()

	img, format, err := decodeImage(imgFile)
	if err != nil {
		printlnLvl(outputLevel, OutputSteps, "The image couldn't be decoded:", err.Error())
		return nil, err
	}

	b := img.Bounds()
	printlnLvl(outputLevel, OutputInfo,
		fmt.Sprintf("Image info:\n\tFormat: %v\n\tDimensions: %dx%dpx\n\tColour model: %v",
			format, b.Dx(), b.Dy(), colourModelToStr(img.ColorModel())))

	return img, nil
}

// writeImage encodes img into a temporary file next to outPath and renames it into place, so a failed
// encode never leaves a truncated image behind.
func writeImage(img image.Image, outPath string, outputLevel OutputLevel) (err error) {
	format, err := outputFormat(outPath)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(outPath), "."+filepath.Base(outPath)+".*.tmp")
	if err != nil {
		printlnLvl(outputLevel, OutputSteps, fmt.Sprintf("There was an error creating the file '%v'.", outPath))
		return err
	}
	tmpPath := f.Name()

	defer func() {
		if err != nil {
			if rerr := os.Remove(tmpPath); rerr != nil && !os.IsNotExist(rerr) {
				printlnLvl(outputLevel, OutputSteps, fmt.Sprintf("Error removing the file '%v': %v", tmpPath, rerr.Error()))
			}
		}
	}()

	w := bufio.NewWriter(f)
	if err = encodeImage(w, img, format); err == nil {
		err = w.Flush()
	}
	if err != nil {
		printlnLvl(outputLevel, OutputSteps, "There was an error encoding the image to the new file.")
		f.Close()
		return err
	}
	if err = f.Chmod(0644); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		printlnLvl(outputLevel, OutputSteps, fmt.Sprintf("Error closing the file '%v': %v", tmpPath, err.Error()))
		return err
	}
	return os.Rename(tmpPath, outPath)
}

// Helper functions

// decodeImage sniffs the format of r. QOI is recognized by its magic; everything else goes through the
// decoders registered with the image package.
func decodeImage(r io.Reader) (image.Image, string, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(len(qoiHeader)); err == nil && bytes.Equal(magic, []byte(qoiHeader)) {
		img, err := qoi.Decode(br)
		return img, formatQOI.String(), err
	}
	return image.Decode(br)
}

func encodeImage(w io.Writer, img image.Image, format imageFormat) error {
	switch format {
	case formatPNG:
		encoder := png.Encoder{CompressionLevel: png.BestCompression}
		return encoder.Encode(w, img)
	case formatQOI:
		return qoi.Encode(w, img)
	default:
		return &InvalidFormatError{fmt.Sprintf("Unknown output format %d.", int(format))}
	}
}

func colourModelToStr(model color.Model) string {
	switch model {
	case color.Alpha16Model:
		return "Alpha16"
	case color.AlphaModel:
		return "Alpha"
	case color.CMYKModel:
		return "CMYK"
	case color.Gray16Model:
		return "Gray16"
	case color.GrayModel:
		return "Gray"
	case color.NRGBA64Model:
		return "NRGBA64"
	case color.NRGBAModel:
		return "NRGBA"
	case color.RGBA64Model:
		return "RGBA64"
	case color.RGBAModel:
		return "RGBA"
	case color.NYCbCrAModel:
		return "NYCbCrA"
	case color.YCbCrModel:
		return "YCbCr"
	default:
		return "<Unknown>"
	}
}
