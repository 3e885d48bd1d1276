package cryptor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// fallbackName is used when the recovered name has nothing left after sanitising.
const fallbackName = "recovered.bin"

// DigConfig stores the configuration options for the Dig operation.
type DigConfig struct {
	ImagePath   string      // The path on disk to a supported image.
	OutDir      string      // The directory to write the recovered file to, under its recovered name.
	Secret      []byte      // The shared secret the file was hidden with.
	Markers     MarkerMode  // Must match the mode used when hiding.
	OutputLevel OutputLevel // The amount of output to provide.
	// MaxCorrectableErrors must match the value used when hiding. 0 means the file was hidden without ECC.
	MaxCorrectableErrors uint8
}

// Dig extracts a hidden file from a provided image on disk and saves it in the output directory under the
// name it was hidden with. It returns the path of the written file.
func Dig(config DigConfig) (string, error) {
	// Input validation
	if len(config.ImagePath) <= 0 {
		return "", &InvalidFormatError{"ImagePath is empty."}
	}
	if len(config.OutDir) <= 0 {
		return "", &InvalidFormatError{"OutDir is empty."}
	}
	if len(config.Secret) <= 0 {
		return "", &InvalidFormatError{"Secret is empty."}
	}
	opts := Options{Markers: config.Markers, MaxCorrectableErrors: config.MaxCorrectableErrors}.withDefaults()
	if !opts.Markers.IsValid() {
		return "", &InvalidFormatError{fmt.Sprintf("Markers is invalid: %d.", int(opts.Markers))}
	}
	if opts.MaxCorrectableErrors > MaxCorrectableErrorsLimit {
		return "", &InvalidFormatError{fmt.Sprintf("MaxCorrectableErrors must be at most %d.", MaxCorrectableErrorsLimit)}
	}

	printlnLvl(config.OutputLevel, OutputDebug, "This tool has been set to display debug output.")

	printlnLvl(config.OutputLevel, OutputSteps, fmt.Sprintf("Loading the image from '%v'...", config.ImagePath))
	img, err := loadImage(config.ImagePath, config.OutputLevel)
	if err != nil {
		printlnLvl(config.OutputLevel, OutputSteps, fmt.Sprintf("Unable to load the image at '%v'!", config.ImagePath))
		return "", err
	}

	printlnLvl(config.OutputLevel, OutputSteps, "Reading the file from the image...")
	rec, err := ExtractImage(img, config.Secret, opts)
	if err != nil {
		var wrongSecret *WrongSecretError
		var damaged *DamagedFrameError
		switch {
		case errors.Is(err, ErrNoHiddenFile):
			printlnLvl(config.OutputLevel, OutputSteps, "No hidden file was found. Either the image holds none or the secret is wrong.")
		case errors.As(err, &wrongSecret):
			printlnLvl(config.OutputLevel, OutputSteps, "A hidden file was found, but the secret does not open it.")
		case errors.As(err, &damaged):
			printlnLvl(config.OutputLevel, OutputSteps, "A hidden file was found, but the image has been damaged.")
		}
		return "", err
	}

	name := sanitizeName(rec.Name)
	printlnLvl(config.OutputLevel, OutputInfo, fmt.Sprintf("Recovered name: '%v'", rec.Name))
	printlnLvl(config.OutputLevel, OutputInfo, fmt.Sprintf("Output file size: %d B", len(rec.Data)))
	if rec.Corrected > 0 {
		printlnLvl(config.OutputLevel, OutputSteps, fmt.Sprintf("Corrected %d flipped bits in the hidden data.", rec.Corrected))
	}

	if err := os.MkdirAll(config.OutDir, 0755); err != nil {
		printlnLvl(config.OutputLevel, OutputSteps, fmt.Sprintf("Unable to create the directory '%v'.", config.OutDir))
		return "", err
	}

	outPath := filepath.Join(config.OutDir, name)
	printlnLvl(config.OutputLevel, OutputSteps, fmt.Sprintf("Writing to the output file at '%v'...", outPath))
	if err := os.WriteFile(outPath, rec.Data, 0644); err != nil {
		printlnLvl(config.OutputLevel, OutputSteps, fmt.Sprintf("There was an error writing the file '%v'.", outPath))
		return "", err
	}

	printlnLvl(config.OutputLevel, OutputSteps, "All done! c:")

	return outPath, nil
}

// sanitizeName strips any directory parts from a recovered name so it cannot escape the output directory.
func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.Clean("/" + name))
	if name == "/" || name == "." || name == ".." || len(strings.TrimSpace(name)) <= 0 {
		return fallbackName
	}
	return name
}
