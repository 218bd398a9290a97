package xtc

import (
	"fmt"

	kin "github.com/molviz/kinetraj"
)

//Errors

// Error is the general structure for XTC trajectory errors. It fullfills kin.Error and kin.TrajError
type Error struct {
	message  string
	filename string //the file that has problems, or empty string if none.
	deco     []string
	critical bool
	cause    error //the underlying error, if any
}

func (err *Error) Error() string {
	if err.cause != nil {
		return fmt.Sprintf("xtc file %s error: %s: %v", err.filename, err.message, err.cause)
	}
	return fmt.Sprintf("xtc file %s error: %s", err.filename, err.message)
}

// Decorate adds new information to the error
func (err *Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

// Unwrap returns the underlying error, so errors.Is can see, for instance, io.ErrUnexpectedEOF.
func (err *Error) Unwrap() error { return err.cause }

// FileName returns the file to which the failing trajectory was associated
func (err *Error) FileName() string { return err.filename }

// Format returns the format of the file (always "xtc") associated to the error
func (err *Error) Format() string { return "xtc" }

// Critical returns true if the error is critical, false otherwise
func (err *Error) Critical() bool { return err.critical }

const (
	TrajUnIni      = "Traj object uninitialized to read"
	TrajUnIniWrite = "Traj object uninitialized to write"
	ReadError      = "Error reading frame"
	WriteError     = "Error writing frame"
	UnableToOpen   = "Unable to open file"
	EmptyFile      = "File contains no frames"
	WrongMagic     = "Wrong magic number"
	WrongFormat    = "Wrong format in the XTC file or frame"
	EOF            = "EOF"
)

// lastFrameError implements kin.LastFrameError
type lastFrameError struct {
	deco     []string
	fileName string
}

// NormalLastFrameTermination does nothing
func (E *lastFrameError) NormalLastFrameTermination() {}

func (E *lastFrameError) FileName() string { return E.fileName }

func (E *lastFrameError) Error() string { return EOF }

func (E *lastFrameError) Critical() bool { return false }

func (E *lastFrameError) Format() string { return "xtc" }

func (E *lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newlastFrameError(filename string, caller string) *lastFrameError {
	e := new(lastFrameError)
	e.fileName = filename
	e.deco = []string{caller}
	return e
}

// errDecorate is a helper function that asserts that the error
// implements kin.Error and decorates the error with the caller's name before returning it.
// if used with a non-kin.Error error, it will cause a panic.
func errDecorate(err error, caller string) error {
	err2 := err.(kin.Error)
	err2.Decorate(caller)
	return err2
}
