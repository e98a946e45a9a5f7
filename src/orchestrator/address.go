package orchestrator

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// ChecksumAddress renders a hex address with its EIP-55 mixed-case
// checksum.
func ChecksumAddress(address string) string {
	lower := strings.ToLower(strings.TrimPrefix(address, "0x"))
	digest := keccak256([]byte(lower))
	out := make([]byte, len(lower))
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if c >= 'a' && c <= 'f' {
			nibble := digest[i/2]
			if i%2 == 0 {
				nibble >>= 4
			}
			if nibble&0x0f >= 8 {
				c = c - 'a' + 'A'
			}
		}
		out[i] = c
	}
	return "0x" + string(out)
}

// ValidDestination checks a withdraw destination: 20 hex bytes, and when
// mixed case the EIP-55 checksum must hold. All-lower and all-upper
// addresses carry no checksum and pass on shape alone.
func ValidDestination(address string) bool {
	hexPart := strings.TrimPrefix(address, "0x")
	if len(hexPart) != 40 {
		return false
	}
	if _, err := hex.DecodeString(hexPart); err != nil {
		return false
	}
	lower := strings.ToLower(hexPart)
	upper := strings.ToUpper(hexPart)
	if hexPart == lower || hexPart == upper {
		return true
	}
	return ChecksumAddress(address) == "0x"+hexPart
}
