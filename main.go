package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"bmp-steganography/config"
	"bmp-steganography/handlers"
	"bmp-steganography/imaging"
	"bmp-steganography/stego"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const usage = `Usage:
  bmpstego encode [-config file] <image.bmp> <secret.ext> [stego.bmp]
  bmpstego decode [-config file] [-trust-ext] [-expect .ext] <stego.bmp> [output]
  bmpstego capacity [-ext .txt] <image.bmp>
  bmpstego serve [-config file]
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "encode", "-e":
		err = runEncode(os.Args[2:])
	case "decode", "-d":
		err = runDecode(os.Args[2:])
	case "capacity":
		err = runCapacity(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("invalid arguments, run bmpstego without arguments for usage")

// setup loads configuration and installs the logger for the stego package.
func setup(configPath string) (*config.Config, *zap.Logger, error) {
	conf, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := conf.NewLogger()
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	stego.SetLogger(log)
	return conf, log, nil
}

func runEncode(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to YAML configuration")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 || fs.NArg() > 3 {
		return errUsage
	}

	conf, log, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	out := conf.Stego.OutputName
	if fs.NArg() == 3 {
		out = fs.Arg(2)
	}

	result, err := stego.EncodeFile(fs.Arg(0), fs.Arg(1), out)
	if err != nil {
		return fmt.Errorf("encoding failed: %w", err)
	}

	original, err := os.ReadFile(fs.Arg(0))
	if err == nil {
		if encoded, rerr := os.ReadFile(result.OutputPath); rerr == nil {
			if psnr, perr := imaging.PixelPSNR(original, encoded); perr == nil {
				log.Info("carrier quality", zap.Float64("psnr_db", psnr))
				if !imaging.MeetsPSNR(psnr, conf.Stego.MinPSNR) {
					log.Warn("carrier quality below floor",
						zap.Float64("psnr_db", psnr), zap.Float64("min_psnr_db", conf.Stego.MinPSNR))
				}
			}
		}
	}

	fmt.Printf("Encoded %s (%d bytes, extension %s) into %s\n",
		fs.Arg(1), result.PayloadSize, result.Extension, result.OutputPath)
	return nil
}

func runDecode(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to YAML configuration")
	trustExt := fs.Bool("trust-ext", false, "Accept whatever extension is embedded")
	expectExt := fs.String("expect", "", "Extension the embedded record must carry (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		return errUsage
	}

	conf, log, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	opts := conf.StegoOptions()
	if *trustExt {
		opts.TrustExtension = true
	}
	if *expectExt != "" {
		opts.ExpectedExtension = *expectExt
	}

	out := conf.Stego.DecodeName
	if fs.NArg() == 2 {
		out = fs.Arg(1)
	}

	result, err := stego.DecodeFile(fs.Arg(0), out, opts)
	if err != nil {
		return fmt.Errorf("decoding failed: %w", err)
	}

	fmt.Printf("Decoded %d bytes (extension %s) into %s\n", result.PayloadSize, result.Extension, result.OutputPath)
	return nil
}

func runCapacity(args []string) error {
	fs := flag.NewFlagSet("capacity", flag.ContinueOnError)
	ext := fs.String("ext", stego.DefaultExtension, "Extension of the secret file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errUsage
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	meta, err := imaging.Inspect(f)
	if err != nil {
		return err
	}

	fmt.Printf("Image: %s (%dx%d)\n", fs.Arg(0), meta.Width, meta.Height)
	fmt.Printf("Carrier bytes: %d\n", meta.CapacityBytes)
	fmt.Printf("Max payload for %s secret: %d bytes\n", *ext, stego.MaxPayloadBytes(meta.CapacityBytes, uint64(len(*ext))))
	return nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to YAML configuration")
	if err := fs.Parse(args); err != nil {
		return err
	}

	conf, log, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	if !conf.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(conf, log)

	log.Info("server starting", zap.String("address", conf.Server.Address))
	log.Info("API endpoints",
		zap.Strings("routes", []string{
			"POST /api/v1/stego/embed    - hide a secret file in a BMP (returns stego BMP)",
			"POST /api/v1/stego/extract  - recover the secret file from a stego BMP",
			"POST /api/v1/stego/capacity - report how much a BMP can carry",
			"GET  /api/v1/health         - health check",
		}))

	return router.Run(conf.Server.Address)
}
