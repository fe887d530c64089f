package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Account identifies a participant, the administrator, or the oracle. The
// engine treats accounts as opaque identities; verifying signatures or
// ownership is the job of the caller-identity layer in front of it.
type Account = common.Address

// ZeroAccount is the empty account, used to mean "unset".
var ZeroAccount Account

// ParseAccount parses a 0x-prefixed hex account string.
func ParseAccount(s string) (Account, error) {
	if !common.IsHexAddress(s) {
		return ZeroAccount, fmt.Errorf("%w: account %q", ErrInvalidParameter, s)
	}
	return common.HexToAddress(s), nil
}
