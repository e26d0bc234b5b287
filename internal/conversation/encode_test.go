// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeFileImages(t *testing.T) {
	tests := []struct {
		path string
		mime string
	}{
		{"photo.png", "image/png"},
		{"photo.jpg", "image/jpeg"},
		{"photo.jpeg", "image/jpeg"},
		{"photo.webp", "image/webp"},
		{"PHOTO.PNG", "image/png"}, // extension match is case-insensitive
	}

	data := []byte{0x89, 0x50, 0x4e, 0x47}
	for _, tt := range tests {
		node, err := EncodeFile(tt.path, data)
		require.NoError(t, err, tt.path)

		img, ok := node.(ImageNode)
		require.True(t, ok, "%s should encode to ImageNode", tt.path)
		require.Equal(t, tt.mime, img.MIMEType)
		require.Equal(t, base64.StdEncoding.EncodeToString(data), img.Data)
		require.Equal(t, KindImage, node.Kind())
	}
}

func TestEncodeFilePDF(t *testing.T) {
	data := []byte("%PDF-1.4 fake")
	node, err := EncodeFile("/tmp/reports/annual report.pdf", data)
	require.NoError(t, err)

	doc, ok := node.(DocumentNode)
	require.True(t, ok)
	// Only the base name is carried, never the directory path.
	require.Equal(t, "annual report.pdf", doc.Filename)
	require.Equal(t, base64.StdEncoding.EncodeToString(data), doc.Data)
	require.Equal(t, KindDocument, node.Kind())
}

func TestEncodeFileUnsupported(t *testing.T) {
	for _, path := range []string{"notes.txt", "archive.tar.gz", "noextension"} {
		node, err := EncodeFile(path, []byte("x"))
		require.Nil(t, node, path)

		var unsupported *UnsupportedFileTypeError
		require.True(t, errors.As(err, &unsupported), "%s: got %v", path, err)
		require.Equal(t, path, unsupported.Path)
		require.Contains(t, err.Error(), "unsupported file type")
	}
}

func TestImageDataURI(t *testing.T) {
	node := ImageNode{MIMEType: "image/webp", Data: "aGk="}
	require.Equal(t, "data:image/webp;base64,aGk=", node.DataURI())
}

func TestDocumentDataURI(t *testing.T) {
	node := DocumentNode{Data: "aGk=", Filename: "f.pdf"}
	require.Equal(t, "data:application/pdf;base64,aGk=", node.DataURI())
}

func TestContentKindString(t *testing.T) {
	require.Equal(t, "text", KindText.String())
	require.Equal(t, "image", KindImage.String())
	require.Equal(t, "document", KindDocument.String())
}
