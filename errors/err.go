package errors

import (
	"fmt"
)

var (
	ErrInvalidParams     = fmt.Errorf("engram: invalid params")
	ErrNotFound          = fmt.Errorf("engram: not found")
	ErrQuotaExceeded     = fmt.Errorf("engram: quota exceeded")
	ErrDimensionMismatch = fmt.Errorf("engram: embedding dimension mismatch")
	ErrProvider          = fmt.Errorf("engram: provider error")

	ErrKeyInvalidFormat = fmt.Errorf("engram: api key has invalid format")
	ErrKeyInactive      = fmt.Errorf("engram: api key is inactive")
	ErrKeyExpired       = fmt.Errorf("engram: api key is expired")
	ErrKeyUserDeleted   = fmt.Errorf("engram: api key owner is deleted")
)
