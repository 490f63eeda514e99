// Package model holds the data types shared across the context engine's
// pipeline stages: chunks, candidates, intents, and the packed context
// result returned to callers.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// SymbolType enumerates the closed set of symbol kinds a chunk may carry.
type SymbolType string

const (
	SymbolFile      SymbolType = "file"
	SymbolModule    SymbolType = "module"
	SymbolClass     SymbolType = "class"
	SymbolFunction  SymbolType = "function"
	SymbolMethod    SymbolType = "method"
	SymbolInterface SymbolType = "interface"
	SymbolTypeDecl  SymbolType = "type"
	SymbolConstant  SymbolType = "constant"
	SymbolBlock     SymbolType = "block"
)

// LineRange is a 1-based inclusive line span. A zero-value LineRange
// (Start == 0 && End == 0) denotes "absent" (whole-file entries).
type LineRange struct {
	Start int
	End   int
}

// IsZero reports whether the range is the absent sentinel.
func (r LineRange) IsZero() bool {
	return r.Start == 0 && r.End == 0
}

// Chunk is the atomic unit of indexed code.
type Chunk struct {
	ID            string
	FilePath      string // forward-slash-normalized path as given to the indexer; a workspace scan gives the root-joined path, which is not made relative to the root
	Content       string
	LineRange     LineRange
	Language      string
	SymbolName    string
	SymbolType    SymbolType
	LastModified  int64 // ms since epoch
	ContentHash   string
	Imports       []string // symbols/packages this chunk's span imports
	Calls         []string // symbols this chunk's span calls/references
}

// NormalizePath forward-slash-normalizes p.
func NormalizePath(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// HashContent returns the hex-encoded SHA-256 digest of content, used both
// as Chunk.ContentHash and as an input to ChunkID.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// ChunkID computes the identity hash for a chunk: the hash of
// (file_path, line_range, content_hash), per the data-model invariant
// that two chunks sharing this id are interchangeable.
func ChunkID(filePath string, lr LineRange, contentHash string) string {
	key := fmt.Sprintf("%s|%d|%d|%s", NormalizePath(filePath), lr.Start, lr.End, contentHash)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// NewChunk builds a Chunk, deriving ContentHash and ID from its fields.
func NewChunk(filePath, content string, lr LineRange, language string) *Chunk {
	hash := HashContent(content)
	path := NormalizePath(filePath)
	return &Chunk{
		ID:          ChunkID(path, lr, hash),
		FilePath:    path,
		Content:     content,
		LineRange:   lr,
		Language:    strings.ToLower(language),
		ContentHash: hash,
	}
}
