package badge

import "errors"

var (
	ErrInvalidOwner       = errors.New("badge: invalid owner address")
	ErrAlreadyExists      = errors.New("badge: token already exists")
	ErrNotFound           = errors.New("badge: token not found")
	ErrNotOwnerOrAgent    = errors.New("badge: caller is not owner or operator")
	ErrApprovalToOwner    = errors.New("badge: approval to current owner")
	ErrSelfOperator       = errors.New("badge: operator is caller")
	ErrUnauthorized       = errors.New("badge: caller not authorized for transfer")
	ErrOwnershipMismatch  = errors.New("badge: from address does not own token")
	ErrRejectedByReceiver = errors.New("badge: receiver rejected token")
	ErrIndexOutOfRange    = errors.New("badge: index out of range")
)
