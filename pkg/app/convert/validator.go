package convert

import (
	"path/filepath"

	"github.com/wintermute101/uf2info/internal/services"
	"github.com/wintermute101/uf2info/pkg/app"
)

// maxImageLimit caps --max-image-size at the size of the 32-bit address space
const maxImageLimit = 1<<32 - 1

// Validate validates a conversion request
func (r *Request) Validate() error {
	// Input path is required
	if r.InputPath == "" {
		return app.NewError(app.ErrCodeInvalidInput, "input path is required", nil)
	}

	if r.OutputPath != "" && filepath.Clean(r.OutputPath) == filepath.Clean(r.InputPath) {
		return app.NewError(app.ErrCodeInvalidInput, "output path must differ from input path", nil)
	}

	if _, err := services.ParseOutputFormat(r.BinaryFormat); err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "invalid binary format", err)
	}

	if r.HexLineLength < 1 || r.HexLineLength > 255 {
		return app.NewError(app.ErrCodeInvalidInput, "hex line length must be between 1 and 255", nil)
	}

	if r.Padding < 0 || r.Padding > 0xFF {
		return app.NewError(app.ErrCodeInvalidInput, "padding must be a single byte value (0-255)", nil)
	}

	if r.MaxImageSize <= 0 || r.MaxImageSize > maxImageLimit {
		return app.NewError(app.ErrCodeInvalidInput, "max image size must be between 1 byte and 4 GiB", nil)
	}

	return nil
}

// outputOptions converts the validated request into writer options
func (r *Request) outputOptions() services.OutputOptions {
	format, _ := services.ParseOutputFormat(r.BinaryFormat)
	return services.OutputOptions{
		Format:        format,
		HexLineLength: byte(r.HexLineLength),
		Padding:       byte(r.Padding),
		MaxImageSize:  uint32(r.MaxImageSize),
	}
}
