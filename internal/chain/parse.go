package chain

import (
	"fmt"
	"strings"
)

const bech32Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

var addressPrefixes = []string{"addr1", "addr_test1", "stake1", "stake_test1"}

// ParseAddress trims and validates a bech32 Cardano payment or stake address.
// Only the prefix and character set are checked.
func ParseAddress(input string) (string, error) {
	addr := strings.TrimSpace(input)
	if addr == "" {
		return "", fmt.Errorf("address is required")
	}
	if strings.ToLower(addr) != addr {
		return "", fmt.Errorf("invalid address: %s", input)
	}

	var body string
	for _, prefix := range addressPrefixes {
		if strings.HasPrefix(addr, prefix) {
			body = addr[len(prefix):]
			break
		}
	}
	if body == "" {
		return "", fmt.Errorf("invalid address prefix: %s", input)
	}
	for _, r := range body {
		if !strings.ContainsRune(bech32Charset, r) {
			return "", fmt.Errorf("invalid address character %q: %s", r, input)
		}
	}
	return addr, nil
}
