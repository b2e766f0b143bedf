package userview

import "errors"

var (
	ErrInvalidPageSize     = errors.New("page size is not one of the allowed sizes")
	ErrInvalidPage         = errors.New("page index must not be negative")
	ErrUnknownSortKey      = errors.New("unknown sort key")
	ErrInvalidDirection    = errors.New("sort direction must be asc or desc")
	ErrSelectAllActive     = errors.New("all users on the page are selected; clear the selection first")
	ErrUserListUnavailable = errors.New("user list unavailable")
	ErrControllerClosed    = errors.New("view controller is closed")
)
