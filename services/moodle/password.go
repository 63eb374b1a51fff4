package moodle

import (
	"crypto/rand"
	"math/big"
)

const (
	lowerChars   = "abcdefghijklmnopqrstuvwxyz"
	upperChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars   = "0123456789"
	specialChars = "*-#"

	passwordLength = 10
)

// GeneratePassword builds a random credential satisfying the site
// password policy: at least eight characters with at least one lower
// case letter, one upper case letter, one digit and one of *, - or #.
func GeneratePassword() string {
	chars := make([]byte, 0, passwordLength)
	chars = append(chars,
		pick(lowerChars),
		pick(upperChars),
		pick(digitChars),
		pick(specialChars),
	)
	all := lowerChars + upperChars + digitChars + specialChars
	for len(chars) < passwordLength {
		chars = append(chars, pick(all))
	}
	shuffle(chars)
	return string(chars)
}

func pick(set string) byte {
	return set[randInt(len(set))]
}

func shuffle(b []byte) {
	for i := len(b) - 1; i > 0; i-- {
		j := randInt(i + 1)
		b[i], b[j] = b[j], b[i]
	}
}

func randInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// the system randomness source failing is not recoverable here
		panic(err)
	}
	return int(v.Int64())
}
