package trace

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainPass is the domain-separation prefix for pass hashes. The version
// suffix leaves room for algorithm migration without ambiguity.
const DomainPass = "windlass/pass/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data). The null byte
// keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// PassHash computes the content hash of a pass snapshot. Two passes over
// the same catalog that made the same decisions hash identically, so
// report history can detect drift between runs.
func PassHash(s *Snapshot) (string, error) {
	canonical, err := s.MarshalCanonical()
	if err != nil {
		return "", fmt.Errorf("pass hash: %w", err)
	}
	return hashWithDomain(DomainPass, canonical), nil
}
