package generator

import (
	"crypto/rand"
	"math/big"
)

const (
	// Алфавит из 62 символов, как в исходных ссылках сервиса
	base62Chars       = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	DefaultCodeLength = 5
)

// Generator выдаёт новый случайный короткий код при каждом вызове
type Generator interface {
	Generate() (string, error)
}

// RandomGenerator равномерно выбирает символы из base62 через crypto/rand
type RandomGenerator struct {
	length int
}

func NewRandomGenerator(length int) *RandomGenerator {
	if length < 1 {
		length = DefaultCodeLength
	}
	return &RandomGenerator{length: length}
}

func (g *RandomGenerator) Generate() (string, error) {
	b := make([]byte, g.length)
	max := big.NewInt(int64(len(base62Chars)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = base62Chars[n.Int64()]
	}
	return string(b), nil
}

func (g *RandomGenerator) Length() int {
	return g.length
}
