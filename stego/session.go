package stego

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"bmp-steganography/imaging"
	"bmp-steganography/models"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	DefaultStegoName  = "stego.bmp"
	DefaultDecodeName = "decode"
)

// Session owns the file handles of one encode or decode run.
// Close releases every handle it opened, whatever happened in between.
type Session struct {
	files []*os.File
}

func (s *Session) open(path string, flag int) (*os.File, error) {
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, &StageError{Stage: StageOpen, Kind: KindFileOpen, Detail: path, Cause: err}
	}
	s.files = append(s.files, f)
	return f, nil
}

func (s *Session) openRead(path string) (*os.File, error) {
	return s.open(path, os.O_RDONLY)
}

func (s *Session) create(path string) (*os.File, error) {
	return s.open(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY)
}

// Close closes all handles in reverse order of opening.
func (s *Session) Close() error {
	var err error
	for i := len(s.files) - 1; i >= 0; i-- {
		if cerr := s.files[i].Close(); cerr != nil {
			err = multierr.Append(err, &StageError{Stage: StageClose, Kind: KindIO, Detail: s.files[i].Name(), Cause: cerr})
		}
	}
	s.files = nil
	return err
}

// guardOutput refuses an output path that names one of the open inputs, which
// creating it would truncate before it is read.
func guardOutput(path string, inputs ...*os.File) error {
	info, err := os.Stat(path)
	if err != nil {
		// missing is the normal case; anything else is reported by create
		return nil
	}
	for _, in := range inputs {
		inInfo, err := in.Stat()
		if err == nil && os.SameFile(info, inInfo) {
			return &StageError{Stage: StageValidate, Kind: KindFileOpen,
				Detail: fmt.Sprintf("output %q is the input %q", path, in.Name())}
		}
	}
	return nil
}

// checkCarrier validates that r holds a usable 24-bit BMP.
func checkCarrier(path string, r io.ReadSeeker) (*models.ImageMetadata, error) {
	meta, err := imaging.Inspect(r)
	if err != nil {
		return nil, &StageError{Stage: StageValidate, Kind: KindFormat, Detail: path, Cause: err}
	}
	return meta, nil
}

// EncodeFile hides the file at secretPath inside the image at srcPath and writes the
// result to destPath (stego.bmp when empty). destPath may not be either input, and is
// only created once the image is known to be large enough. A failure after that point leaves the partial file.
func EncodeFile(srcPath, secretPath, destPath string) (result *EmbedResult, err error) {
	if destPath == "" {
		destPath = DefaultStegoName
	}
	if !imaging.IsBMPPath(srcPath) {
		return nil, &StageError{Stage: StageValidate, Kind: KindFormat, Detail: fmt.Sprintf("source image %q is not a .bmp file", srcPath)}
	}

	sess := &Session{}
	defer func() {
		err = multierr.Append(err, sess.Close())
		if err != nil {
			result = nil
		}
	}()

	src, err := sess.openRead(srcPath)
	if err != nil {
		return nil, err
	}
	secret, err := sess.openRead(secretPath)
	if err != nil {
		return nil, err
	}

	if err := guardOutput(destPath, src, secret); err != nil {
		return nil, err
	}

	meta, err := checkCarrier(srcPath, src)
	if err != nil {
		return nil, err
	}

	info, err := secret.Stat()
	if err != nil {
		return nil, &StageError{Stage: StageOpen, Kind: KindIO, Detail: secretPath, Cause: err}
	}
	ext, err := SecretExtension(secretPath)
	if err != nil {
		return nil, atStage(StageValidate, err)
	}
	if !HasCapacity(meta.CapacityBytes, uint64(len(MagicString)), uint64(len(ext)), uint64(info.Size())) {
		return nil, &StageError{Stage: StageCapacity, Kind: KindCapacity, Detail: fmt.Sprintf(
			"%s (%dx%d) can carry at most %d payload bytes, secret has %d",
			srcPath, meta.Width, meta.Height, MaxPayloadBytes(meta.CapacityBytes, uint64(len(ext))), info.Size())}
	}

	dest, err := sess.create(destPath)
	if err != nil {
		return nil, err
	}

	lsb := NewBMPSteganography(&models.StegoConfig{SecretFilename: secretPath})
	result, err = lsb.Embed(src, secret, info.Size(), dest)
	if err != nil {
		Logger().Warn("embedding aborted, partial stego image left on disk",
			zap.String("path", destPath), zap.String("stage", string(StageOf(err))))
		return nil, fmt.Errorf("%w; partial output left at %s", err, destPath)
	}
	result.OutputPath = destPath
	return result, nil
}

// DecodeFile recovers the secret hidden in the image at stegoPath. Any extension on
// outPath is replaced by the embedded one; outPath defaults to "decode".
// The output file is only created once the record header has been verified, and
// never over the stego image itself.
func DecodeFile(stegoPath, outPath string, config *models.StegoConfig) (result *ExtractResult, err error) {
	if !imaging.IsBMPPath(stegoPath) {
		return nil, &StageError{Stage: StageValidate, Kind: KindFormat, Detail: fmt.Sprintf("stego image %q is not a .bmp file", stegoPath)}
	}
	base := OutputBase(outPath)

	sess := &Session{}
	defer func() {
		err = multierr.Append(err, sess.Close())
		if err != nil {
			result = nil
		}
	}()

	src, err := sess.openRead(stegoPath)
	if err != nil {
		return nil, err
	}
	if _, err := checkCarrier(stegoPath, src); err != nil {
		return nil, err
	}

	var written string
	lsb := NewBMPSteganography(config)
	result, err = lsb.Extract(src, func(ext string) (io.Writer, error) {
		written = base + ext
		if err := guardOutput(written, src); err != nil {
			return nil, err
		}
		return sess.create(written)
	})
	if err != nil {
		return nil, err
	}
	result.OutputPath = written
	return result, nil
}

// OutputBase strips the extension from a requested decode path.
func OutputBase(outPath string) string {
	if outPath == "" {
		return DefaultDecodeName
	}
	return strings.TrimSuffix(outPath, filepath.Ext(outPath))
}
