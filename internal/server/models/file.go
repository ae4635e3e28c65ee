package models

import "time"

// FileObject describes one encrypted file. The ciphertext itself lives in
// object storage under StorageKey; the plaintext file key is never
// persisted anywhere server-side.
type FileObject struct {
	ID       string
	OwnerID  string
	FileName string
	// Nonce is the envelope nonce (base64), carried out-of-band on
	// transfer as the X-Nonce header.
	Nonce      string
	StorageKey string
	Size       int64
	// Chunked marks streams sealed chunk-wise rather than in one piece.
	Chunked   bool
	CreatedAt time.Time
}
