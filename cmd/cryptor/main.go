package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/squanchy11/cryptor"
	"github.com/squanchy11/cryptor/internal/config"
	"github.com/squanchy11/cryptor/internal/crypt"
	"github.com/squanchy11/cryptor/internal/frame"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// readPassphrase asks for the shared passphrase on the terminal without echoing it.
var readPassphrase = func(prompt io.Writer) ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("no -secret-file given and stdin is not a terminal")
	}
	fmt.Fprint(prompt, "Shared passphrase: ")
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(prompt)
	return pass, err
}

// Program entry point

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cryptor", flag.ContinueOnError)
	fs.SetOutput(stderr)

	digToggle := fs.Bool("dig", false, "Whether to extract a file instead of hiding it")
	imgPath := fs.String("img", "", "The filepath to the image on disk")
	filePath := fs.String("file", "", "The filepath to the file to hide")
	outPath := fs.String("out", "", "The filepath to write the steg image to, or the directory to dig the file into")
	name := fs.String("name", "", "The filename to store with the hidden file (defaults to the base name of -file)")
	secretFile := fs.String("secret-file", "", "A file whose contents are the shared secret (prompts for a passphrase if empty)")
	configPath := fs.String("config", "", "An optional YAML config file")
	markers := fs.String("markers", "", "How end markers are produced: derived or static")
	policy := fs.String("policy", "", "How the frame fills the image: padded or layered")
	compression := fs.String("compress", "", "Compression for the hidden file: none, gzip or zstd")
	outputLevel := fs.String("output", "", "How much to print: none, steps, info or debug")
	eccErrors := fs.Int("ecc", 0, "Bit errors to correct per 32 B chunk of hidden data, 0 for none (must match when digging)")
	saveConfig := fs.String("save-config", "", "Write the effective settings to this YAML file and exit")
	capacity := fs.Bool("capacity", false, "Print how many bytes the image can hold and exit")
	analyze := fs.Bool("analyze", false, "Print a bit-plane analysis of the image and exit")
	version := fs.Bool("version", false, "Print the version and exit")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if *version {
		fmt.Fprintln(stdout, "cryptor", cryptor.Version())
		return exitOK
	}

	conf, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, "Unable to load the config:", err)
		return exitError
	}

	// flags that were given explicitly override the config file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "markers":
			conf.Markers = *markers
		case "policy":
			conf.Policy = *policy
		case "compress":
			conf.Compression = *compression
		case "output":
			conf.OutputLevel = *outputLevel
		case "secret-file":
			conf.SecretFile = *secretFile
		case "ecc":
			conf.MaxCorrectableErrors = *eccErrors
		}
	})
	if err := conf.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	if len(*saveConfig) > 0 {
		if err := config.Save(*saveConfig, conf); err != nil {
			fmt.Fprintln(stderr, "Unable to save the config:", err)
			return exitError
		}
		fmt.Fprintf(stdout, "Saved the settings to '%v'.\n", *saveConfig)
		return exitOK
	}

	cryptor.SetOutput(stdout)
	lvl := cryptor.OutputLevel(conf.OutputLevelIndex())

	if len(*imgPath) <= 0 {
		fs.PrintDefaults()
		return exitUsage
	}

	if *capacity || *analyze {
		return report(stdout, stderr, *imgPath, conf, *capacity, *analyze)
	}

	if (!*digToggle && len(*filePath) <= 0) || len(*outPath) <= 0 {
		fs.PrintDefaults()
		return exitUsage
	}

	secret, err := loadSecret(conf.SecretFile, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "Unable to read the shared secret:", err)
		return exitError
	}

	if !*digToggle {
		err = cryptor.Hide(&cryptor.HideConfig{
			ImagePath:            *imgPath,
			FilePath:             *filePath,
			OutPath:              *outPath,
			Name:                 *name,
			Secret:               secret,
			Markers:              conf.MarkerMode(),
			Policy:               conf.CapacityPolicy(),
			Compression:          conf.CompressionMethod(),
			MaxCorrectableErrors: uint8(conf.MaxCorrectableErrors),
		}, lvl)
	} else {
		var written string
		written, err = cryptor.Dig(cryptor.DigConfig{
			ImagePath:            *imgPath,
			OutDir:               *outPath,
			Secret:               secret,
			Markers:              conf.MarkerMode(),
			OutputLevel:          lvl,
			MaxCorrectableErrors: uint8(conf.MaxCorrectableErrors),
		})
		if err == nil && lvl == cryptor.OutputNone {
			fmt.Fprintln(stdout, written)
		}
	}

	if err != nil {
		fmt.Fprintln(stderr, describe(err))
		return exitError
	}
	return exitOK
}

func report(stdout, stderr io.Writer, imgPath string, conf *config.Config, capacity, analyze bool) int {
	if capacity {
		n, err := cryptor.CapacityOf(imgPath, conf.CapacityPolicy())
		if err != nil {
			fmt.Fprintln(stderr, describe(err))
			return exitError
		}
		fmt.Fprintf(stdout, "Capacity: %d B with the %v policy\n", n, conf.CapacityPolicy())
	}
	if analyze {
		a, err := cryptor.AnalyzeFile(imgPath)
		if err != nil {
			fmt.Fprintln(stderr, describe(err))
			return exitError
		}
		fmt.Fprintln(stdout, a)
	}
	return exitOK
}

// loadSecret reads the secret file, or stretches a typed passphrase when there is none.
func loadSecret(secretFile string, prompt io.Writer) ([]byte, error) {
	if len(secretFile) > 0 {
		secret, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, err
		}
		if len(secret) <= 0 {
			return nil, fmt.Errorf("the secret file '%v' is empty", secretFile)
		}
		return secret, nil
	}

	pass, err := readPassphrase(prompt)
	if err != nil {
		return nil, err
	}
	if len(pass) <= 0 {
		return nil, errors.New("the passphrase is empty")
	}
	return crypt.StretchPassphrase(pass), nil
}

// describe turns the library's errors into messages for the command line.
func describe(err error) string {
	var (
		capErr *cryptor.InsufficientHidingSpotsError
		wrong  *cryptor.WrongSecretError
	)
	switch {
	case errors.Is(err, cryptor.ErrNoHiddenFile):
		return "Error: this image does not hold a hidden file for this secret."
	case errors.As(err, &wrong):
		return "Error: wrong key. " + err.Error()
	case errors.As(err, &capErr):
		return "Error: payload too large. " + err.Error()
	case errors.Is(err, frame.ErrMarkerCollision):
		return "Error: the encrypted file collides with an end marker. Use derived markers, another secret or another -name."
	default:
		return "Error: " + err.Error()
	}
}
