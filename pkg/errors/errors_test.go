// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docdex Contributors

package errors_test

import (
	stderrors "errors"
	"net/http"
	"testing"

	docdexerr "github.com/docdex-dev/docdex/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIncludesCodeAndFields(t *testing.T) {
	err := docdexerr.New(
		docdexerr.CodeIngestDocumentFailure,
		"ingestion failed",
		docdexerr.FieldDocumentID(42),
		docdexerr.Field("title", "Invoice"),
	)

	require.Error(t, err)
	assert.Equal(t, docdexerr.CodeIngestDocumentFailure, docdexerr.CodeOf(err))
	assert.True(t, docdexerr.HasCode(err, docdexerr.CodeIngestDocumentFailure))

	fields := docdexerr.FieldsOf(err)
	assert.Equal(t, 42, fields["document_id"])
	assert.Equal(t, "Invoice", fields["title"])
}

func TestErrorfWrapsInnerError(t *testing.T) {
	inner := stderrors.New("disk full")
	err := docdexerr.Errorf(docdexerr.CodeStoreDatabaseFailure, "write failed: %w", inner)
	require.Error(t, err)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, docdexerr.CodeStoreDatabaseFailure, docdexerr.CodeOf(err))
}

func TestWrapPreservesWrappedErrorAndCode(t *testing.T) {
	root := stderrors.New("record missing")
	err := docdexerr.Wrap(
		root,
		docdexerr.CodeStoreSourceNotFound,
		"loading document source",
		docdexerr.FieldDocumentID(7),
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, root)
	assert.Equal(t, docdexerr.CodeStoreSourceNotFound, docdexerr.CodeOf(err))
	assert.True(t, docdexerr.IsNotFound(err))
	assert.Equal(t, 7, docdexerr.FieldsOf(err)["document_id"])
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, docdexerr.Wrap(nil, docdexerr.CodeServerInternalFailure, "ignored"))
	assert.NoError(t, docdexerr.Wrapf(nil, docdexerr.CodeServerInternalFailure, "ignored %s", "arg"))
}

func TestClassificationHelpers(t *testing.T) {
	assert.True(t, docdexerr.IsNotFound(docdexerr.New(docdexerr.CodeSourceDocumentNotFound, "missing")))
	assert.True(t, docdexerr.IsInvalidInput(docdexerr.New(docdexerr.CodeQueryRequestInvalid, "blank")))
	assert.True(t, docdexerr.IsInvalidInput(docdexerr.New(docdexerr.CodeVectorDecodeInvalid, "garbage")))
	assert.True(t, docdexerr.IsConflict(docdexerr.New(docdexerr.CodeEmbedCountMismatch, "mismatch")))
	assert.True(t, docdexerr.IsUpstreamFailure(docdexerr.New(docdexerr.CodeEmbedUpstreamFailure, "down")))
	assert.False(t, docdexerr.IsNotFound(docdexerr.New(docdexerr.CodeStoreDatabaseFailure, "boom")))
	assert.False(t, docdexerr.IsNotFound(nil))
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", docdexerr.New(docdexerr.CodeServerEntityNotFound, "gone"), http.StatusNotFound},
		{"invalid input", docdexerr.New(docdexerr.CodeServerRequestInvalid, "bad"), http.StatusBadRequest},
		{"conflict", docdexerr.New(docdexerr.CodeEmbedCountMismatch, "mismatch"), http.StatusConflict},
		{"upstream", docdexerr.New(docdexerr.CodeSourceUpstreamFailure, "down"), http.StatusBadGateway},
		{"internal", docdexerr.New(docdexerr.CodeServerInternalFailure, "boom"), http.StatusInternalServerError},
		{"plain error", stderrors.New("plain"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, docdexerr.HTTPStatus(tc.err))
		})
	}
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, docdexerr.Code(""), docdexerr.CodeOf(stderrors.New("plain")))
	assert.Equal(t, docdexerr.Code(""), docdexerr.CodeOf(nil))
}

func TestWithAddsFieldsPreservingCode(t *testing.T) {
	err := docdexerr.New(docdexerr.CodeStoreDatabaseFailure, "boom")
	err = docdexerr.With(err, docdexerr.FieldChunkIndex(3))

	assert.Equal(t, docdexerr.CodeStoreDatabaseFailure, docdexerr.CodeOf(err))
	assert.Equal(t, 3, docdexerr.FieldsOf(err)["chunk_index"])
}
