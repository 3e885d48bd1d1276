package cryptor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/squanchy11/cryptor/internal/frame"
)

// HideConfig stores the configuration options for the Hide operation.
type HideConfig struct {
	// ImagePath is the path on disk to a supported image.
	ImagePath string
	// FilePath is the path on disk to the file to hide.
	FilePath string
	// OutPath is the path on disk to write the output image. Its extension picks a lossless format.
	OutPath string
	// Name is the filename stored with the file. Empty means the base name of FilePath.
	Name string
	// Secret is the shared secret both sides hold.
	Secret []byte
	// Markers is how the frame end markers are produced.
	Markers MarkerMode
	// Policy is how the frame is spread over the carrier's bit planes.
	Policy Policy
	// Compression is the method the file is packed with before encryption.
	Compression Compression
	// MaxCorrectableErrors is the number of bit errors to be able to correct for per 32 B chunk of the
	// encrypted fields. Setting it to 0 disables bit ECC. Dig must be given the same value.
	MaxCorrectableErrors uint8
	// Rand is the source of padding bytes. Nil means crypto/rand.
	Rand io.Reader
}

// Hide hides a file from disk in a provided image on disk, and saves the result to a new image.
func Hide(config *HideConfig, outputLevel OutputLevel) error {
	// Input validation
	if len(config.ImagePath) <= 0 {
		return &InvalidFormatError{"ImagePath is empty."}
	}
	if len(config.FilePath) <= 0 {
		return &InvalidFormatError{"FilePath is empty."}
	}
	if len(config.OutPath) <= 0 {
		return &InvalidFormatError{"OutPath is empty."}
	}
	if len(config.Secret) <= 0 {
		return &InvalidFormatError{"Secret is empty."}
	}
	if _, err := outputFormat(config.OutPath); err != nil {
		return err
	}
	opts := Options{
		Markers:              config.Markers,
		Policy:               config.Policy,
		Compression:          config.Compression,
		MaxCorrectableErrors: config.MaxCorrectableErrors,
		Rand:                 config.Rand,
	}.withDefaults()
	if err := opts.validate(); err != nil {
		return err
	}

	name := config.Name
	if len(name) <= 0 {
		name = filepath.Base(config.FilePath)
	}

	printlnLvl(outputLevel, OutputSteps, fmt.Sprintf("Cryptor v%v.", Version()))
	printlnLvl(outputLevel, OutputDebug, "This tool has been set to display debug output.")

	printlnLvl(outputLevel, OutputSteps, fmt.Sprintf("Loading the image from '%v'...", config.ImagePath))
	img, err := loadImage(config.ImagePath, outputLevel)
	if err != nil {
		printlnLvl(outputLevel, OutputSteps, fmt.Sprintf("Unable to load the image at '%v'!", config.ImagePath))
		return err
	}

	printlnLvl(outputLevel, OutputSteps, fmt.Sprintf("Reading the file at '%v'...", config.FilePath))
	doc, err := os.ReadFile(config.FilePath)
	if err != nil {
		printlnLvl(outputLevel, OutputSteps, fmt.Sprintf("Unable to read the file at '%v'.", config.FilePath))
		return err
	}

	printlnLvl(outputLevel, OutputInfo, fmt.Sprintf("Input file size: %d B", len(doc)))
	printlnLvl(outputLevel, OutputInfo, fmt.Sprintf("Stored name: '%v'", name))
	printlnLvl(outputLevel, OutputInfo, fmt.Sprintf("Capacity: %d B with the %v policy", Capacity(img, opts.Policy), opts.Policy))
	printlnLvl(outputLevel, OutputDebug, fmt.Sprintf("Markers: %v, compression: %v", opts.Markers, opts.Compression))

	if opts.MaxCorrectableErrors > 0 {
		printlnLvl(outputLevel, OutputSteps, "Setting up data ECC...")
		coder, err := opts.coder()
		if err != nil {
			return err
		}
		printlnLvl(outputLevel, OutputInfo, fmt.Sprintf("Using a %v. Up to %d bit errors per chunk can be corrected, and every chunk grows by %d B.",
			coder, coder.Strength(), coder.ParityBytes()))
	}
	printlnLvl(outputLevel, OutputInfo, fmt.Sprintf("Largest file that fits: %d B", MaxDocumentSize(img, name, opts)))

	printlnLvl(outputLevel, OutputSteps, "Encoding the file into the image...")
	out, err := HideImage(img, name, doc, config.Secret, opts)
	if err != nil {
		var capErr *InsufficientHidingSpotsError
		switch {
		case errors.As(err, &capErr):
			printlnLvl(outputLevel, OutputSteps, "The file is too large for this image.")
		case errors.Is(err, frame.ErrMarkerCollision):
			printlnLvl(outputLevel, OutputSteps, "The encrypted file collides with an end marker. Try derived markers, another secret or another stored name.")
		}
		return err
	}

	printlnLvl(outputLevel, OutputSteps, fmt.Sprintf("Writing the encoded image to '%v' now...", config.OutPath))
	if err = writeImage(out, config.OutPath, outputLevel); err != nil {
		printlnLvl(outputLevel, OutputSteps, "An error occurred while writing to the final image.")
		return err
	}

	printlnLvl(outputLevel, OutputSteps, "All done! c:")

	return nil
}

// CapacityOf loads the image at imgPath and returns how many frame bytes it holds under policy.
func CapacityOf(imgPath string, policy Policy) (int, error) {
	img, err := loadImage(imgPath, OutputNone)
	if err != nil {
		return 0, err
	}
	return Capacity(img, policy), nil
}

// AnalyzeFile loads the image at imgPath and analyzes its bit planes.
func AnalyzeFile(imgPath string) (*Analysis, error) {
	img, err := loadImage(imgPath, OutputNone)
	if err != nil {
		return nil, err
	}
	return Analyze(img), nil
}
