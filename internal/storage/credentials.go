package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ettorre/wordarena/internal/dependencies/random"
)

const saltSpace = 100000

// HashPassword produces the stored credential form "salt:digest" where
// digest is hex(sha256(salt + password)).
func HashPassword(rnd random.Random, password string) string {
	salt := fmt.Sprintf("%d", rnd.Intn(saltSpace))
	return salt + ":" + digest(salt, password)
}

// VerifyPassword checks a plaintext password against a stored credential.
func VerifyPassword(stored, password string) bool {
	salt, want, found := strings.Cut(stored, ":")
	if !found {
		return false
	}
	return digest(salt, password) == want
}

func digest(salt, password string) string {
	sum := sha256.Sum256([]byte(salt + password))
	return hex.EncodeToString(sum[:])
}
