package tracking

import "encoding/base64"

// pixelB64 is a 1x1 transparent PNG.
const pixelB64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

var pixel []byte

func init() {
	pixel, _ = base64.StdEncoding.DecodeString(pixelB64)
}

// Pixel returns the PNG bytes served by the open-tracking endpoint.
func Pixel() []byte { return pixel }
