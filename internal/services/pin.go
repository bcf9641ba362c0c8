package services

import (
	"golang.org/x/crypto/bcrypt"
)

// checkManagerPIN verifies a staff PIN against the configured bcrypt
// hash. An empty hash disables the check (development setups).
func checkManagerPIN(pinHash, pin string) error {
	if pinHash == "" {
		return nil
	}
	if pin == "" {
		return newValidationError("manager PIN required")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(pinHash), []byte(pin)); err != nil {
		return newValidationError("invalid manager PIN")
	}
	return nil
}
