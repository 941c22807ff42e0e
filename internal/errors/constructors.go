package errors

// Convenience functions for common error patterns

// Input errors

func InputNotFound(path string) *ConversionError {
	return New(CategoryInput, SeverityFatal, "input file not found").
		WithContext("path", path)
}

func UnsupportedInputFormat(ext string) *ConversionError {
	return New(CategoryFormat, SeverityFatal, "unsupported input format").
		WithContext("extension", ext)
}

func UnsupportedOutputFormat(format string) *ConversionError {
	return New(CategoryFormat, SeverityFatal, "unsupported output format").
		WithContext("format", format)
}

// Geometry kernel errors

func KernelUnavailable(format string) *ConversionError {
	return New(CategoryKernel, SeverityFatal, "geometry kernel not available").
		WithContext("format", format)
}

func KernelParseFailure(path string, cause error) *ConversionError {
	return Wrap(cause, CategoryKernel, SeverityFatal, "geometry kernel failed to parse file").
		WithContext("path", path)
}

func MeshingFailure(path string, cause error) *ConversionError {
	return Wrap(cause, CategoryKernel, SeverityFatal, "tessellation failed").
		WithContext("path", path)
}

// Mesh processing errors

func MeshValidationFailure(reason string) *ConversionError {
	return New(CategoryMesh, SeverityFatal, "mesh validation failed").
		WithContext("reason", reason)
}

// Export errors

func ExportFailure(format, path string, cause error) *ConversionError {
	return Wrap(cause, CategoryExport, SeverityFatal, "mesh export failed").
		WithContext("format", format).
		WithContext("path", path)
}

func FileSystemError(operation string, cause error) *ConversionError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "filesystem operation failed").
		WithContext("operation", operation)
}

// Internal errors

func InternalError(message string, cause error) *ConversionError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
