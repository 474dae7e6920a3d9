package scanner

import "errors"

// Start rejections. Reported synchronously; the run never begins.
var (
	ErrInvalidDirectory = errors.New("root is not an accessible directory")
	ErrEmptyAcceptedSet = errors.New("validate mode requires at least one accepted charset")
	ErrAlreadyRunning   = errors.New("a scan is already running")
)

// Per-item failures are absorbed; ErrRootEnumeration fails the run.
var (
	ErrFileUnreadable      = errors.New("file unreadable")
	ErrDirectoryUnreadable = errors.New("directory unreadable")
	ErrRootEnumeration     = errors.New("root enumeration failed")
)

// errStopWalk ends a walk early without reporting an error.
var errStopWalk = errors.New("stop walk")
