package export

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

// Passphrase-protected export container:
// magic | 16-byte salt | 24-byte nonce | XChaCha20-Poly1305 ciphertext.

var protectMagic = []byte("PKPROT1\x00")

const (
	saltSize = 16
	// scrypt parameters sized for interactive use on handheld hardware.
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// ErrWrongPassphrase is returned by Open when decryption fails, which for
// an authenticated cipher also covers corrupted archives.
var ErrWrongPassphrase = errors.New("export: wrong passphrase or corrupted archive")

func deriveKey(passphrase string, salt []byte) ([]byte, error) {
	return scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, chacha20poly1305.KeySize)
}

// Protect reads the whole of r and writes the protected container to w.
func Protect(w io.Writer, r io.Reader, passphrase string) error {
	plain, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("export: read payload: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("export: salt: %w", err)
	}
	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return fmt.Errorf("export: derive key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return fmt.Errorf("export: cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("export: nonce: %w", err)
	}

	for _, chunk := range [][]byte{protectMagic, salt, nonce, aead.Seal(nil, nonce, plain, protectMagic)} {
		if _, err := w.Write(chunk); err != nil {
			return fmt.Errorf("export: write: %w", err)
		}
	}
	return nil
}

// Open reads a protected container from r and writes the decrypted payload
// to w. A wrong passphrase yields ErrWrongPassphrase.
func Open(w io.Writer, r io.Reader, passphrase string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("export: read archive: %w", err)
	}

	header := len(protectMagic) + saltSize + chacha20poly1305.NonceSizeX
	if len(data) < header || string(data[:len(protectMagic)]) != string(protectMagic) {
		return errors.New("export: not a protected archive")
	}
	salt := data[len(protectMagic) : len(protectMagic)+saltSize]
	nonce := data[len(protectMagic)+saltSize : header]
	ciphertext := data[header:]

	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return fmt.Errorf("export: derive key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return fmt.Errorf("export: cipher: %w", err)
	}
	plain, err := aead.Open(nil, nonce, ciphertext, protectMagic)
	if err != nil {
		return ErrWrongPassphrase
	}
	if _, err := w.Write(plain); err != nil {
		return fmt.Errorf("export: write payload: %w", err)
	}
	return nil
}
