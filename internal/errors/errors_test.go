package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := New(CategoryFormat, SeverityFatal, "unsupported output format")
	assert.Equal(t, "format (fatal): unsupported output format", err.Error())

	cause := stderrors.New("read: connection reset")
	wrapped := Wrap(cause, CategoryKernel, SeverityFatal, "tessellation failed")
	assert.Contains(t, wrapped.Error(), "tessellation failed")
	assert.Contains(t, wrapped.Error(), "connection reset")
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrap(cause, CategoryExport, SeverityFatal, "mesh export failed")
	require.ErrorIs(t, err, cause)
}

func TestWithContext(t *testing.T) {
	err := InputNotFound("/uploads/part.step")
	require.NotNil(t, err.Context)
	assert.Equal(t, "/uploads/part.step", err.Context["path"])
}

func TestCategoryPredicates(t *testing.T) {
	err := KernelUnavailable("step")
	assert.True(t, HasCategory(err, CategoryKernel))
	assert.False(t, HasCategory(err, CategoryExport))
	assert.Equal(t, CategoryKernel, CategoryOf(err))

	// Wrapped one level deeper, As should still find it.
	deeper := fmt.Errorf("convert: %w", err)
	assert.True(t, HasCategory(deeper, CategoryKernel))

	plain := stderrors.New("plain")
	assert.Equal(t, CategoryInternal, CategoryOf(plain))
	assert.False(t, HasCategory(plain, CategoryKernel))
}

func TestConstructorCategories(t *testing.T) {
	cases := []struct {
		err      *ConversionError
		category ErrorCategory
	}{
		{InputNotFound("x"), CategoryInput},
		{UnsupportedInputFormat("3mf"), CategoryFormat},
		{UnsupportedOutputFormat("ply"), CategoryFormat},
		{KernelUnavailable("iges"), CategoryKernel},
		{KernelParseFailure("x.step", stderrors.New("bad")), CategoryKernel},
		{MeshingFailure("x.step", stderrors.New("bad")), CategoryKernel},
		{MeshValidationFailure("no faces"), CategoryMesh},
		{ExportFailure("stl", "out.stl", stderrors.New("bad")), CategoryExport},
		{FileSystemError("rename", stderrors.New("bad")), CategoryFileSystem},
		{InternalError("unexpected", stderrors.New("bad")), CategoryInternal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.category, tc.err.Category, tc.err.Message)
	}
}
