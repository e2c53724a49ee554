package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Rule/action layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrNotFound      = "E_NOT_FOUND"
	ErrAlreadyOwned  = "E_ALREADY_OWNED"
	ErrLimitExceeded = "E_LIMIT_EXCEEDED"
	ErrNoFunds       = "E_NO_FUNDS"
	ErrNoPermission  = "E_NO_PERMISSION"
	ErrInvalidState  = "E_INVALID_STATE"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrNotFound:        {},
	ErrAlreadyOwned:    {},
	ErrLimitExceeded:   {},
	ErrNoFunds:         {},
	ErrNoPermission:    {},
	ErrInvalidState:    {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
