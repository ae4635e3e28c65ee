package envelope

import (
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/arkadym/sealbox/internal/common"
)

// DefaultChunkSize is the plaintext size of one sealed chunk.
const DefaultChunkSize = 1 << 20

// maxChunkFrame bounds a frame read so a corrupted length header cannot
// trigger a huge allocation.
const maxChunkFrame = DefaultChunkSize + 1024

// ChunkWriter seals a stream chunk by chunk so large files never have to be
// buffered whole. Each chunk is framed as [uint32 length ‖ sealed bytes] and
// bound to its index and a final-chunk flag through the AEAD associated
// data, so chunks cannot be reordered, duplicated or truncated undetected.
//
// The per-chunk nonce is the first 16 bytes of the stream nonce followed by
// the 8-byte big-endian chunk index.
type ChunkWriter struct {
	w    io.Writer
	aead interface {
		Seal([]byte, []byte, []byte, []byte) []byte
	}
	prefix [16]byte
	index  uint64
	closed bool
}

// NewChunkWriter starts a chunked stream under fileKey. The returned nonce
// must travel with the ciphertext exactly like the whole-file nonce does.
func NewChunkWriter(w io.Writer, fileKey []byte) (*ChunkWriter, []byte, error) {
	aead, err := chacha20poly1305.NewX(fileKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: bad file key: %v", common.ErrValidation, err)
	}
	nonce := common.GenerateRandByteArray(NonceSize)
	cw := &ChunkWriter{w: w, aead: aead}
	copy(cw.prefix[:], nonce[:16])
	// the trailing 8 bytes of the stream nonce are the chunk counter space
	for i := 16; i < NonceSize; i++ {
		nonce[i] = 0
	}
	return cw, nonce, nil
}

// WriteChunk seals one plaintext chunk. last must be true for the final
// chunk (and only for it); an empty final chunk is legal.
func (cw *ChunkWriter) WriteChunk(plaintext []byte, last bool) error {
	if cw.closed {
		return fmt.Errorf("%w: write after final chunk", common.ErrValidation)
	}
	var nonce [NonceSize]byte
	copy(nonce[:], cw.prefix[:])
	binary.BigEndian.PutUint64(nonce[16:], cw.index)

	sealed := cw.aead.Seal(nil, nonce[:], plaintext, chunkAAD(cw.index, last))

	var frame [4]byte
	binary.BigEndian.PutUint32(frame[:], uint32(len(sealed)))
	if _, err := cw.w.Write(frame[:]); err != nil {
		return err
	}
	if _, err := cw.w.Write(sealed); err != nil {
		return err
	}
	cw.index++
	cw.closed = last
	return nil
}

// EncryptStream copies r into w chunk by chunk and returns the stream nonce.
func EncryptStream(w io.Writer, r io.Reader, fileKey []byte) ([]byte, error) {
	cw, nonce, err := NewChunkWriter(w, fileKey)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, DefaultChunkSize)
	for {
		n, readErr := io.ReadFull(r, buf)
		switch readErr {
		case nil:
			if err := cw.WriteChunk(buf[:n], false); err != nil {
				return nil, err
			}
		case io.ErrUnexpectedEOF, io.EOF:
			if err := cw.WriteChunk(buf[:n], true); err != nil {
				return nil, err
			}
			return nonce, nil
		default:
			return nil, readErr
		}
	}
}

// DecryptStream reverses EncryptStream, writing plaintext into w. A missing
// final chunk (truncated stream), any tampered frame, or a wrong key yields
// common.ErrAuthentication with nothing further written for the bad chunk.
func DecryptStream(w io.Writer, r io.Reader, fileKey, nonce []byte) error {
	aead, err := chacha20poly1305.NewX(fileKey)
	if err != nil {
		return fmt.Errorf("%w: bad file key: %v", common.ErrValidation, err)
	}
	if len(nonce) != NonceSize {
		return common.ErrAuthentication
	}

	var chunkNonce [NonceSize]byte
	copy(chunkNonce[:], nonce[:16])

	var index uint64
	var frame [4]byte
	for {
		if _, err := io.ReadFull(r, frame[:]); err != nil {
			// the stream must end with a last-flagged chunk, never mid-frame
			return common.ErrAuthentication
		}
		size := binary.BigEndian.Uint32(frame[:])
		if size > maxChunkFrame {
			return common.ErrAuthentication
		}
		sealed := make([]byte, size)
		if _, err := io.ReadFull(r, sealed); err != nil {
			return common.ErrAuthentication
		}

		binary.BigEndian.PutUint64(chunkNonce[16:], index)

		plaintext, err := aead.Open(nil, chunkNonce[:], sealed, chunkAAD(index, false))
		if err != nil {
			// retry as the final chunk
			plaintext, err = aead.Open(nil, chunkNonce[:], sealed, chunkAAD(index, true))
			if err != nil {
				return common.ErrAuthentication
			}
			if _, err := w.Write(plaintext); err != nil {
				return err
			}
			// nothing may follow the final chunk
			if _, err := io.ReadFull(r, frame[:1]); err != io.EOF {
				return common.ErrAuthentication
			}
			return nil
		}
		if _, err := w.Write(plaintext); err != nil {
			return err
		}
		index++
	}
}

func chunkAAD(index uint64, last bool) []byte {
	aad := make([]byte, 9)
	binary.BigEndian.PutUint64(aad, index)
	if last {
		aad[8] = 1
	}
	return aad
}
