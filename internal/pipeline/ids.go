package pipeline

import (
	"strconv"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	idPrefix       = "mtg_"
	idSuffixLength = 10
	idAlphabet     = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// NewID returns a record identifier: a base36 millisecond timestamp followed
// by a random suffix.
func NewID(now time.Time) (string, error) {
	suffix, err := gonanoid.Generate(idAlphabet, idSuffixLength)
	if err != nil {
		return "", err
	}
	return idPrefix + strconv.FormatInt(now.UnixMilli(), 36) + "_" + suffix, nil
}
