package engine

import (
	"errors"

	"github.com/danieljhkim/workbench/internal/session"
)

var (
	// ErrConfiguration indicates the filesystem or settings cannot support
	// the requested operation, for example an unwritable workspace root.
	ErrConfiguration = errors.New("configuration error")

	// ErrUnrecognizedArgument indicates a field or flag outside the
	// recognized set was supplied.
	ErrUnrecognizedArgument = errors.New("unrecognized argument")

	// ErrInvalidArgument indicates a recognized argument has a malformed value.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotInitialized indicates no project exists at the workspace root.
	ErrNotInitialized = errors.New("project not initialized")

	// ErrEnvironmentBuild indicates the environment builder failed.
	ErrEnvironmentBuild = errors.New("environment build failed")

	// ErrDuplicateName indicates a session with the same name already exists.
	ErrDuplicateName = session.ErrDuplicateName

	// ErrNotFound indicates a session name or id did not resolve.
	ErrNotFound = session.ErrNotFound
)
