package membership

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"time"
)

const (
	// SubmissionIDPrefix marks ids minted by this service.
	SubmissionIDPrefix = "OSG"

	submissionSuffixLength = 7
	suffixAlphabet         = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NewSubmissionID mints "OSG-<unix millis>-<7 random base36 chars>".
//
// The suffix comes from crypto/rand, so two ids only collide when they share
// the millisecond and all 7 suffix characters. Ids are not deduplicated.
func NewSubmissionID(now time.Time) (string, error) {
	suffix, err := randomSuffix(submissionSuffixLength)
	if err != nil {
		return "", err
	}
	return SubmissionIDPrefix + "-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + suffix, nil
}

func randomSuffix(length int) (string, error) {
	// Rejection sampling avoids modulo bias: 252 is the largest multiple of 36 below 256.
	const maxRandomByte = 252

	out := make([]byte, length)
	buf := make([]byte, length*2)
	written := 0

	for written < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read secure random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= maxRandomByte {
				continue
			}
			out[written] = suffixAlphabet[int(b)%len(suffixAlphabet)]
			written++
			if written == length {
				break
			}
		}
	}
	return string(out), nil
}
