package settlement

import (
	"regexp"

	"github.com/0xdevcollins/boundless-backend/internal/apperr"
	"github.com/ethereum/go-ethereum/common"
)

var txHashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// ValidateAddress checks a settlement-layer account address.
func ValidateAddress(addr string) error {
	if !common.IsHexAddress(addr) {
		return apperr.InvalidArgument("invalid settlement address %q", addr)
	}
	return nil
}

// ValidateTxHash checks a settlement transaction identifier: a 32-byte
// hex hash with 0x prefix.
func ValidateTxHash(hash string) error {
	if !txHashPattern.MatchString(hash) {
		return apperr.InvalidArgument("invalid settlement transaction hash %q", hash)
	}
	return nil
}
