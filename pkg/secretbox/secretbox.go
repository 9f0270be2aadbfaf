// Package secretbox cifra secretos en reposo (channel secrets de LINE, refresh tokens)
// con AES-256-GCM. El token resultante es autodescriptivo: "nonce:tag:ciphertext" en hex.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	keySize   = 32
	nonceSize = 16
	tagSize   = 16
	separator = ":"
)

// hkdfSalt fija la derivación: cambiarlo invalida todos los secretos ya cifrados.
var hkdfSalt = []byte("reservas-api/secretbox/v1")

// ErrInvalidCiphertext el token no tiene la forma esperada o la autenticación falló.
// Nunca se devuelve texto plano parcial junto con este error.
var ErrInvalidCiphertext = errors.New("secretbox: ciphertext inválido")

// Box cifra y descifra con una clave fija de 256 bits.
type Box struct {
	aead cipher.AEAD
}

// New construye un Box a partir de ENCRYPTION_KEY: 64 caracteres hex se usan tal cual,
// cualquier otro valor no vacío se deriva con HKDF-SHA256.
func New(key string) (*Box, error) {
	raw, err := deriveKey(key)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, fmt.Errorf("secretbox: aes: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("secretbox: gcm: %w", err)
	}
	return &Box{aead: aead}, nil
}

func deriveKey(key string) ([]byte, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("secretbox: clave vacía")
	}
	if len(key) == keySize*2 {
		if raw, err := hex.DecodeString(key); err == nil {
			return raw, nil
		}
	}
	raw := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(key), hkdfSalt, []byte("aes-256-gcm")), raw); err != nil {
		return nil, fmt.Errorf("secretbox: derivar clave: %w", err)
	}
	return raw, nil
}

// Encrypt cifra plaintext con un nonce aleatorio nuevo en cada llamada.
func (b *Box) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("secretbox: nonce: %w", err)
	}
	sealed := b.aead.Seal(nil, nonce, []byte(plaintext), nil)
	ct, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]
	return strings.Join([]string{
		hex.EncodeToString(nonce),
		hex.EncodeToString(tag),
		hex.EncodeToString(ct),
	}, separator), nil
}

// Decrypt invierte Encrypt. Cualquier fallo (segmentos, hex, tamaños, tag) es ErrInvalidCiphertext.
func (b *Box) Decrypt(token string) (string, error) {
	parts := strings.Split(token, separator)
	if len(parts) != 3 {
		return "", ErrInvalidCiphertext
	}
	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceSize {
		return "", ErrInvalidCiphertext
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != tagSize {
		return "", ErrInvalidCiphertext
	}
	ct, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	plain, err := b.aead.Open(nil, nonce, append(ct, tag...), nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return string(plain), nil
}
