// Package jwt utilidades HS256 compartidas por el verificador de tokens de la mini-app
// y por las herramientas que emiten tokens de prueba.
package jwt

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed el token no tiene exactamente tres segmentos no vacíos.
var ErrMalformed = errors.New("jwt: token mal formado")

// Segments partes de un token compacto header.payload.signature, aún sin verificar.
type Segments struct {
	Header    string
	Payload   string
	Signature string
}

// SigningInput es lo que firma HS256: header + "." + payload, tal como vinieron.
func (s Segments) SigningInput() string {
	return s.Header + "." + s.Payload
}

// Split separa el token en sus tres segmentos.
func Split(token string) (Segments, error) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 {
		return Segments{}, ErrMalformed
	}
	for _, p := range parts {
		if p == "" {
			return Segments{}, ErrMalformed
		}
	}
	return Segments{Header: parts[0], Payload: parts[1], Signature: parts[2]}, nil
}

// DecodeSegment decodifica un segmento base64url (con o sin padding).
func DecodeSegment(seg string) ([]byte, error) {
	return jwt.NewParser(jwt.WithPaddingAllowed()).DecodeSegment(seg)
}

// SignatureHS256 calcula la firma base64url (sin padding) de signingInput con secret.
func SignatureHS256(signingInput, secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	sig, err := jwt.SigningMethodHS256.Sign(signingInput, []byte(secret))
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(sig), nil
}

// SignHS256 genera un token firmado con los claims dados.
func SignHS256(secret string, claims jwt.Claims) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
