package ports

import "context"

// Converter produces a packed X3G file from a G-code source file.
type Converter interface {
	// Convert runs the conversion and returns the path of the produced file.
	// It returns domain.ErrConverterOutput if the file never appears.
	Convert(ctx context.Context, source string) (string, error)
}
