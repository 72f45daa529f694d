package restclient

import (
	"crypto/sha256"
	"encoding/hex"
)

// BodyDigest returns a short hex digest of body, used for ERROR-level log
// lines on a failed POST/PUT (spec.md §4.E.2 step 6 "log ERROR with body
// digest") without dumping potentially large or sensitive bodies into logs.
func BodyDigest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])[:12]
}
