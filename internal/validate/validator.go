// Package validate holds input-sanity checks applied at the transport
// boundary before a request reaches the operation engine, adapted from
// payout-engine/shared/security/validator.go's address/amount/chain-id
// checks onto this domain's principal and multi-chain address formats.
package validate

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

var (
	ethAddressRegex = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

	sqlInjectionPatterns = []string{
		"--", ";--", "/*", "*/", "@@",
		"alter ", "begin ", "cast(", "create ", "cursor ", "declare ",
		"delete ", "drop ", "end ", "exec(", "execute(", "insert ",
		"select ", "union ", "update ", "xp_",
	}
)

// Error is a single field-level validation failure.
type Error struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// EVMAddress validates an EVM address's hex format and rejects the zero
// address.
func EVMAddress(address string) error {
	if address == "" {
		return &Error{Field: "address", Message: "address is required"}
	}
	if !ethAddressRegex.MatchString(address) {
		return &Error{Field: "address", Message: "invalid EVM address format"}
	}
	if address == "0x0000000000000000000000000000000000000000" {
		return &Error{Field: "address", Message: "zero address is not allowed"}
	}
	return nil
}

// Amount validates a base-10 integer amount string (wei, sats, or e8s
// depending on caller), rejecting non-positive and implausibly large
// values.
func Amount(amount string) error {
	if amount == "" {
		return &Error{Field: "amount", Message: "amount is required"}
	}
	val, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return &Error{Field: "amount", Message: "invalid amount format"}
	}
	if val.Sign() <= 0 {
		return &Error{Field: "amount", Message: "amount must be positive"}
	}
	maxAmount := new(big.Int).Exp(big.NewInt(10), big.NewInt(30), nil)
	if val.Cmp(maxAmount) > 0 {
		return &Error{Field: "amount", Message: "amount exceeds maximum allowed"}
	}
	return nil
}

// ChainID validates that an EVM chain id is one this deployment's
// config.Chains actually wires an RPC client for.
func ChainID(chainID uint64, configured map[uint64]bool) error {
	if !configured[chainID] {
		return &Error{Field: "chain_id", Message: "unsupported chain"}
	}
	return nil
}

// SanitizeInput trims whitespace and rejects strings containing common
// SQL-injection markers, used on free-text fields (account names, role
// names) before they reach gorm.
func SanitizeInput(input string) (string, error) {
	lower := strings.ToLower(input)
	for _, pattern := range sqlInjectionPatterns {
		if strings.Contains(lower, pattern) {
			return "", &Error{Field: "input", Message: "potentially malicious input detected"}
		}
	}
	return strings.TrimSpace(input), nil
}

// PrincipalText validates that a string is plausibly IC Principal
// textual form: lowercase base32 groups of five separated by dashes.
var principalTextRegex = regexp.MustCompile(`^[a-z2-7]{1,5}(-[a-z2-7]{1,5})*$`)

func PrincipalText(s string) error {
	if s == "" {
		return &Error{Field: "principal", Message: "principal is required"}
	}
	if !principalTextRegex.MatchString(s) {
		return &Error{Field: "principal", Message: "invalid principal textual format"}
	}
	return nil
}
