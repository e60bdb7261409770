package controller

import "errors"

// ErrObjectNotFound is returned when a required object (the controller
// itself or a named target) is absent from storage (§4.4).
var ErrObjectNotFound = errors.New("controller: object not found")

// ErrNotExecutable is returned when the object named as controller_id is
// not an Executable object.
var ErrNotExecutable = errors.New("controller: object is not executable")
