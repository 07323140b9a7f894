package services

import (
	"fmt"
	"math/rand"
)

var sessionLetters = []rune("0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ")

const sessionIDLength = 4

// NewSessionID mints a short opaque session token; case-insensitive
// alphanumeric, canonically uppercase.
func NewSessionID() string {
	builder := make([]rune, sessionIDLength)
	for i := range builder {
		builder[i] = sessionLetters[rand.Intn(len(sessionLetters))]
	}
	return string(builder)
}

// NewAccessPin mints the 4-digit album PIN.
func NewAccessPin() string {
	return fmt.Sprintf("%d", 1000+rand.Intn(9000))
}
