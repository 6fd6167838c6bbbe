package utils

import (
	"crypto/rand"
	"math/big"
)

const challengeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomChallenge returns n uppercase alphanumeric characters.
func RandomChallenge(n int) (string, error) {
	max := big.NewInt(int64(len(challengeAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = challengeAlphabet[idx.Int64()]
	}
	return string(b), nil
}
