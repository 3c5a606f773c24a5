package Models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/exp/rand"
)

const (
	codePrefix       = "VIS"
	codeSuffixLength = 4
	base36Alphabet   = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// GenerateCode builds a human-shareable code from the creation timestamp and
// a short random suffix: VIS-<base36 millis>-<4 base36 chars>, uppercase.
func GenerateCode(now time.Time) string {
	timestamp := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	suffix := make([]byte, codeSuffixLength)
	for i := range suffix {
		suffix[i] = base36Alphabet[rand.Intn(len(base36Alphabet))]
	}
	return fmt.Sprintf("%s-%s-%s", codePrefix, timestamp, suffix)
}

// NewUniqueCode generates a code and retries until it does not collide with
// any stored record. Collisions are astronomically unlikely with the
// timestamp+random scheme, but the store is still consulted.
func NewUniqueCode(store *RecordStore, now time.Time) (string, error) {
	for {
		code := GenerateCode(now)
		exists, err := store.CodeExists(code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
}
