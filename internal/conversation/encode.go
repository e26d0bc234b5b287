// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"
)

// =============================================================================
// CONTENT KINDS
// =============================================================================

// ContentKind classifies what a content node carries.
type ContentKind int

const (
	KindText ContentKind = iota
	KindImage
	KindDocument
)

// String returns a human-readable kind name.
func (k ContentKind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindDocument:
		return "document"
	default:
		return "text"
	}
}

// =============================================================================
// FILE ENCODING
// =============================================================================

// imageMIMETypes maps recognized image extensions to their MIME types.
var imageMIMETypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"webp": "image/webp",
}

// SupportedExtensions lists every file extension EncodeFile accepts.
var SupportedExtensions = []string{"png", "jpg", "jpeg", "webp", "pdf"}

// UnsupportedFileTypeError is returned when a file's extension is not in the
// supported set. It surfaces to the user before any network call is made.
type UnsupportedFileTypeError struct {
	Path      string
	Ext       string
	Supported []string
}

// Error implements the error interface.
func (e *UnsupportedFileTypeError) Error() string {
	return fmt.Sprintf("unsupported file type %q for %s (supported: %s)",
		e.Ext, e.Path, strings.Join(e.Supported, ", "))
}

// EncodeFile turns a file's bytes into the content node appended to a user
// turn. The extension decides the node type: png/jpg/jpeg/webp produce an
// ImageNode, pdf produces a DocumentNode carrying the file's base name.
// The operation is pure given the bytes; reading the file is the caller's
// concern.
func EncodeFile(path string, data []byte) (ContentNode, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))

	switch ext {
	case "png", "jpg", "jpeg", "webp":
		return ImageNode{
			MIMEType: imageMIMEFor(ext),
			Data:     base64.StdEncoding.EncodeToString(data),
		}, nil
	case "pdf":
		return DocumentNode{
			Data:     base64.StdEncoding.EncodeToString(data),
			Filename: filepath.Base(path),
		}, nil
	default:
		return nil, &UnsupportedFileTypeError{
			Path:      path,
			Ext:       ext,
			Supported: SupportedExtensions,
		}
	}
}

// imageMIMEFor maps an image extension to its MIME type.
// Unrecognized extensions fall back to image/jpeg.
func imageMIMEFor(ext string) string {
	if mime, ok := imageMIMETypes[ext]; ok {
		return mime
	}
	return "image/jpeg"
}
