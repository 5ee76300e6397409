// Package imaging validates BMP carriers and measures how much embedding disturbed them
package imaging

import (
	"math"
)

// CalculatePSNR compares two 8-bit sample arrays of equal length, such as BMP pixel data.
func CalculatePSNR(original, stego []byte) float64 {
	if len(original) != len(stego) {
		return 0.0
	}

	if len(original) == 0 {
		return 0.0
	}

	var mse float64
	for i := range original {
		diff := float64(original[i]) - float64(stego[i])
		mse += diff * diff
	}
	mse /= float64(len(original))

	// identical pixels
	if mse == 0 {
		return math.Inf(1)
	}

	// PSNR = 20 * log10(MAX / sqrt(MSE)), MAX = 255 for 8-bit channels
	maxSampleValue := 255.0
	psnr := 20 * math.Log10(maxSampleValue/math.Sqrt(mse))

	return psnr
}

// PixelPSNR compares the pixel data of two BMP files given as whole-file bytes.
func PixelPSNR(originalBMP, stegoBMP []byte) (float64, error) {
	a, err := PixelData(originalBMP)
	if err != nil {
		return 0, err
	}
	b, err := PixelData(stegoBMP)
	if err != nil {
		return 0, err
	}
	return CalculatePSNR(a, b), nil
}

// MeetsPSNR reports whether a stego image measured at psnr dB is within the
// quality floor minDB. A floor of zero or less disables the check.
func MeetsPSNR(psnr, minDB float64) bool {
	return minDB <= 0 || psnr >= minDB
}
