// Package codec seals project structure documents into encrypted envelopes
// for storage and opens them again.
//
// A document is serialized to JSON, compressed with zstd, padded with
// PKCS#7 and encrypted with AES-256-CBC under a fresh random IV.
package codec

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
	"github.com/rpggio/codepulse/internal/structure"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32

	envelopeVersion = 1
	maxDecodedSize  = 64 << 20
)

var (
	// ErrDecode is returned when an envelope cannot be opened.
	ErrDecode = errors.New("malformed structure envelope")
	// ErrInvalidKeyLength is returned when the key is not 32 bytes.
	ErrInvalidKeyLength = errors.New("invalid key length")
)

// Envelope is the stored form of a document. IV and Ciphertext are hex.
type Envelope struct {
	Version    int    `json:"v"`
	IV         string `json:"iv"`
	Ciphertext string `json:"ciphertext"`
}

// Codec encrypts and decrypts documents with a single static key.
// It is safe for concurrent use.
type Codec struct {
	block   cipher.Block
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	random  io.Reader
}

// New creates a Codec for a 32-byte key.
func New(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeyLength
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(0),
		zstd.WithDecoderMaxMemory(maxDecodedSize),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &Codec{block: block, encoder: encoder, decoder: decoder, random: rand.Reader}, nil
}

// Encrypt seals doc under a freshly generated IV.
func (c *Codec) Encrypt(doc structure.Document) (Envelope, error) {
	plain, err := json.Marshal(doc)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to encode structure: %w", err)
	}
	compressed := c.encoder.EncodeAll(plain, make([]byte, 0, len(plain)/2))
	padded := pad(compressed, aes.BlockSize)

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(c.random, iv); err != nil {
		return Envelope{}, fmt.Errorf("failed to generate iv: %w", err)
	}

	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(out, padded)

	return Envelope{
		Version:    envelopeVersion,
		IV:         hex.EncodeToString(iv),
		Ciphertext: hex.EncodeToString(out),
	}, nil
}

// Decrypt opens env. Every failure wraps ErrDecode.
func (c *Codec) Decrypt(env Envelope) (structure.Document, error) {
	if env.Version != envelopeVersion {
		return structure.Document{}, fmt.Errorf("%w: unsupported version %d", ErrDecode, env.Version)
	}
	iv, err := hex.DecodeString(env.IV)
	if err != nil {
		return structure.Document{}, fmt.Errorf("%w: iv is not hex", ErrDecode)
	}
	if len(iv) != aes.BlockSize {
		return structure.Document{}, fmt.Errorf("%w: iv must be %d bytes, got %d", ErrDecode, aes.BlockSize, len(iv))
	}
	data, err := hex.DecodeString(env.Ciphertext)
	if err != nil {
		return structure.Document{}, fmt.Errorf("%w: ciphertext is not hex", ErrDecode)
	}
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return structure.Document{}, fmt.Errorf("%w: ciphertext is not block aligned", ErrDecode)
	}

	plain := make([]byte, len(data))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(plain, data)

	compressed, err := unpad(plain, aes.BlockSize)
	if err != nil {
		return structure.Document{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	raw, err := c.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return structure.Document{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	var doc structure.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return structure.Document{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return doc, nil
}

// Seal encrypts doc and returns the envelope in its stored text form.
func (c *Codec) Seal(doc structure.Document) (string, error) {
	env, err := c.Encrypt(doc)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to encode envelope: %w", err)
	}
	return string(data), nil
}

// Open parses a stored envelope and decrypts it.
func (c *Codec) Open(stored string) (structure.Document, error) {
	env, err := ParseEnvelope(stored)
	if err != nil {
		return structure.Document{}, err
	}
	return c.Decrypt(env)
}

// ParseEnvelope parses the stored text form of an envelope.
func ParseEnvelope(stored string) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(stored), &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return env, nil
}

func pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padded length")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, errors.New("invalid padding")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("invalid padding")
		}
	}
	return data[:len(data)-n], nil
}
