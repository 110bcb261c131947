package errors

import "fmt"

var (
	ErrAdminSlotTaken          = fmt.Errorf("admin already connected")
	ErrInvalidAdminCredentials = fmt.Errorf("invalid admin credentials")
	ErrMissingIdentity         = fmt.Errorf("name and email required")
	ErrPersistence             = fmt.Errorf("identity persistence failed")
	ErrAlreadyAuthenticated    = fmt.Errorf("session already authenticated")
	ErrIdentityNotFound        = fmt.Errorf("identity not found")
	ErrTransportClosed         = fmt.Errorf("transport closed")
	ErrSendBufferFull          = fmt.Errorf("send buffer full")
	ErrWorkerPanic             = fmt.Errorf("worker panic")
)
