package visitor

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	FingerprintLength = 32
	IPHashLength      = 16

	fieldDelimiter = "|"
)

// Digester is a one-way digest. Implementations must produce identical bytes
// for identical input.
type Digester interface {
	Digest(parts ...string) []byte
}

// SHA256 digests the delimiter-joined parts in one shot.
type SHA256 struct{}

func (SHA256) Digest(parts ...string) []byte {
	sum := sha256.Sum256([]byte(strings.Join(parts, fieldDelimiter)))
	return sum[:]
}

// Fingerprinter derives the non-reversible visitor identifiers stored with
// each click. Raw IPs go in and never come out.
type Fingerprinter struct {
	digester Digester
	salt     string
}

func NewFingerprinter(salt string, digester Digester) *Fingerprinter {
	if digester == nil {
		digester = SHA256{}
	}
	return &Fingerprinter{digester: digester, salt: salt}
}

// Fingerprint returns 32 hex characters derived from (userAgent, ip, acceptLanguage).
func (f *Fingerprinter) Fingerprint(userAgent, ip, acceptLanguage string) string {
	return f.hexDigest(FingerprintLength, userAgent, ip, acceptLanguage)
}

// HashIP returns 16 hex characters identifying the IP coarsely.
func (f *Fingerprinter) HashIP(ip string) string {
	return f.hexDigest(IPHashLength, "ip", ip)
}

func (f *Fingerprinter) hexDigest(length int, parts ...string) string {
	if f.salt != "" {
		parts = append([]string{f.salt}, parts...)
	}
	sum := hex.EncodeToString(f.digester.Digest(parts...))
	if len(sum) > length {
		return sum[:length]
	}
	return sum
}

// ValidFingerprint reports whether s looks like a Fingerprint output.
func ValidFingerprint(s string) bool {
	if len(s) != FingerprintLength {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
