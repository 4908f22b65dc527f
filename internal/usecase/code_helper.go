package usecase

import (
	"crypto/rand"
	"io"
)

// generateHospitalCode creates a secure random code in the canonical shape:
// three uppercase letters followed by five digits, e.g. "ABC12345".
func generateHospitalCode() (string, error) {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	const digits = "0123456789"

	buffer := make([]byte, 8)
	if _, err := io.ReadFull(rand.Reader, buffer); err != nil {
		return "", err
	}

	out := make([]byte, 8)
	for i := 0; i < 3; i++ {
		out[i] = letters[int(buffer[i])%len(letters)]
	}
	for i := 3; i < 8; i++ {
		out[i] = digits[int(buffer[i])%len(digits)]
	}
	return string(out), nil
}
