package pkg

import "math/rand"

const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandString returns a random game code of length n.
func RandString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}
