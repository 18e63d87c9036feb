package cache

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint derives a cache key from the raw request document and the date bound
func Fingerprint(document []byte, bound string) string {
	d := xxhash.New()
	_, _ = d.Write(document)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(bound)
	return "pivot:" + strconv.FormatUint(d.Sum64(), 16)
}
