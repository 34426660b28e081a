package utils

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"
)

const upperAlnum = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomString returns n characters drawn uniformly from alphabet
func RandomString(n int, alphabet string) (string, error) {
	size := big.NewInt(int64(len(alphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b), nil
}

// NewReferralCode returns an 8 character upper-case code
func NewReferralCode() (string, error) {
	return RandomString(8, upperAlnum)
}

// NewRedemptionCode returns prefix followed by 12 random characters
func NewRedemptionCode(prefix string) (string, error) {
	s, err := RandomString(12, upperAlnum)
	if err != nil {
		return "", err
	}
	return prefix + s, nil
}

// NewOrderNo returns ORD, the unix millis of t and a random suffix
func NewOrderNo(t time.Time) (string, error) {
	s, err := RandomString(6, upperAlnum)
	if err != nil {
		return "", err
	}
	return "ORD" + strconv.FormatInt(t.UnixMilli(), 10) + s, nil
}
