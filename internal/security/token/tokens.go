package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// DefaultBytes es la entropía mínima (128 bits) para ids de sesión y tokens CSRF.
const DefaultBytes = 16

// GenerateOpaqueToken genera un token opaco aleatorio (base64url sin padding).
// Siempre usa crypto/rand: el token es el único bearer de la sesión.
func GenerateOpaqueToken(nBytes int) (string, error) {
	if nBytes < DefaultBytes {
		return "", fmt.Errorf("tokens: %d bytes is below the %d byte minimum", nBytes, DefaultBytes)
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("tokens: random source: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Generate es el generador por defecto (16 bytes).
func Generate() (string, error) {
	return GenerateOpaqueToken(DefaultBytes)
}

// SHA256Base64URL devuelve sha256(input) en base64url sin padding.
func SHA256Base64URL(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Fingerprint devuelve un prefijo corto del hash, apto para logs.
// Nunca logueamos ids de sesión ni tokens en claro.
func Fingerprint(s string) string {
	if s == "" {
		return "-"
	}
	return SHA256Base64URL(s)[:12]
}
