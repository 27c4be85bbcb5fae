// Package basicerr holds the numbered run-time errors of the interpreter.
package basicerr

import (
	"errors"
	"fmt"

	"github.com/antibyte/gwbasic/pkg/mbf"
)

// Code is a GW-BASIC error number as returned by ERR.
type Code int

const (
	NextWithoutFor              Code = 1
	SyntaxError                 Code = 2
	ReturnWithoutGosub          Code = 3
	OutOfData                   Code = 4
	IllegalFunctionCall         Code = 5
	Overflow                    Code = 6
	OutOfMemory                 Code = 7
	UndefinedLineNumber         Code = 8
	SubscriptOutOfRange         Code = 9
	DuplicateDefinition         Code = 10
	DivisionByZero              Code = 11
	IllegalDirect               Code = 12
	TypeMismatch                Code = 13
	OutOfStringSpace            Code = 14
	StringTooLong               Code = 15
	StringFormulaTooComplex     Code = 16
	CantContinue                Code = 17
	UndefinedUserFunction       Code = 18
	NoResume                    Code = 19
	ResumeWithoutError          Code = 20
	MissingOperand              Code = 22
	LineBufferOverflow          Code = 23
	DeviceTimeout               Code = 24
	DeviceFault                 Code = 25
	ForWithoutNext              Code = 26
	OutOfPaper                  Code = 27
	WhileWithoutWend            Code = 29
	WendWithoutWhile            Code = 30
	FieldOverflow               Code = 50
	InternalError               Code = 51
	BadFileNumber               Code = 52
	FileNotFound                Code = 53
	BadFileMode                 Code = 54
	FileAlreadyOpen             Code = 55
	DeviceIOError               Code = 57
	FileAlreadyExists           Code = 58
	DiskFull                    Code = 61
	InputPastEnd                Code = 62
	BadRecordNumber             Code = 63
	BadFileName                 Code = 64
	DirectStatementInFile       Code = 66
	TooManyFiles                Code = 67
	DeviceUnavailable           Code = 68
	CommunicationBufferOverflow Code = 69
	PermissionDenied            Code = 70
	DiskNotReady                Code = 71
	DiskMediaError              Code = 72
	AdvancedFeature             Code = 73
	RenameAcrossDisks           Code = 74
	PathFileAccessError         Code = 75
	PathNotFound                Code = 76
	Deadlock                    Code = 77
)

var messages = map[Code]string{
	NextWithoutFor:              "NEXT without FOR",
	SyntaxError:                 "Syntax error",
	ReturnWithoutGosub:          "RETURN without GOSUB",
	OutOfData:                   "Out of DATA",
	IllegalFunctionCall:         "Illegal function call",
	Overflow:                    "Overflow",
	OutOfMemory:                 "Out of memory",
	UndefinedLineNumber:         "Undefined line number",
	SubscriptOutOfRange:         "Subscript out of range",
	DuplicateDefinition:         "Duplicate Definition",
	DivisionByZero:              "Division by zero",
	IllegalDirect:               "Illegal direct",
	TypeMismatch:                "Type mismatch",
	OutOfStringSpace:            "Out of string space",
	StringTooLong:               "String too long",
	StringFormulaTooComplex:     "String formula too complex",
	CantContinue:                "Can't continue",
	UndefinedUserFunction:       "Undefined user function",
	NoResume:                    "No RESUME",
	ResumeWithoutError:          "RESUME without error",
	MissingOperand:              "Missing operand",
	LineBufferOverflow:          "Line buffer overflow",
	DeviceTimeout:               "Device Timeout",
	DeviceFault:                 "Device Fault",
	ForWithoutNext:              "FOR without NEXT",
	OutOfPaper:                  "Out of paper",
	WhileWithoutWend:            "WHILE without WEND",
	WendWithoutWhile:            "WEND without WHILE",
	FieldOverflow:               "FIELD overflow",
	InternalError:               "Internal error",
	BadFileNumber:               "Bad file number",
	FileNotFound:                "File not found",
	BadFileMode:                 "Bad file mode",
	FileAlreadyOpen:             "File already open",
	DeviceIOError:               "Device I/O error",
	FileAlreadyExists:           "File already exists",
	DiskFull:                    "Disk full",
	InputPastEnd:                "Input past end",
	BadRecordNumber:             "Bad record number",
	BadFileName:                 "Bad file name",
	DirectStatementInFile:       "Direct statement in file",
	TooManyFiles:                "Too many files",
	DeviceUnavailable:           "Device Unavailable",
	CommunicationBufferOverflow: "Communication buffer overflow",
	PermissionDenied:            "Permission Denied",
	DiskNotReady:                "Disk not Ready",
	DiskMediaError:              "Disk media error",
	AdvancedFeature:             "Advanced Feature",
	RenameAcrossDisks:           "Rename across disks",
	PathFileAccessError:         "Path/File access error",
	PathNotFound:                "Path not found",
	Deadlock:                    "Deadlock",
}

// Message returns the text GW-BASIC prints for the code.
func (c Code) Message() string {
	if msg, ok := messages[c]; ok {
		return msg
	}
	return "Unprintable error"
}

func (c Code) String() string { return c.Message() }

// BASICError is a run-time error with optional program context.
type BASICError struct {
	Code       Code
	LineNumber int  // -1 when not tied to a program line
	DirectMode bool // raised while executing a direct statement
	Detail     string
}

// New returns an error for code without line context.
func New(code Code) *BASICError {
	return &BASICError{Code: code, LineNumber: -1}
}

// WithLine ties the error to a program line.
func (be *BASICError) WithLine(line int) *BASICError {
	be.LineNumber = line
	return be
}

// WithDirectMode marks the error as raised from a direct statement.
func (be *BASICError) WithDirectMode(direct bool) *BASICError {
	be.DirectMode = direct
	return be
}

// WithDetail attaches a diagnostic that is not part of the printed message.
func (be *BASICError) WithDetail(format string, args ...interface{}) *BASICError {
	be.Detail = fmt.Sprintf(format, args...)
	return be
}

func (be *BASICError) Error() string {
	msg := be.Code.Message()
	if !be.DirectMode && be.LineNumber >= 0 {
		msg += fmt.Sprintf(" in %d", be.LineNumber)
	}
	if be.Detail != "" {
		msg += " (" + be.Detail + ")"
	}
	return msg
}

// Is matches any *BASICError carrying the same code, so errors.Is(err, New(code)) works.
func (be *BASICError) Is(target error) bool {
	var other *BASICError
	if errors.As(target, &other) {
		return other.Code == be.Code
	}
	return false
}

// CodeOf extracts the error number from err, or 0 if err is not a BASIC error.
func CodeOf(err error) Code {
	var be *BASICError
	if errors.As(err, &be) {
		return be.Code
	}
	if mapped := FromArithmetic(err); mapped != nil {
		return mapped.Code
	}
	return 0
}

// FromArithmetic maps the numeric format's conditions onto run-time errors.
// It returns nil for errors that are not arithmetic conditions.
func FromArithmetic(err error) *BASICError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mbf.ErrOverflow):
		return New(Overflow)
	case errors.Is(err, mbf.ErrDivisionByZero):
		return New(DivisionByZero)
	}
	return nil
}

// AsBASIC returns err as a *BASICError, mapping arithmetic conditions and
// wrapping anything else as an internal error.
func AsBASIC(err error) *BASICError {
	var be *BASICError
	if errors.As(err, &be) {
		return be
	}
	if mapped := FromArithmetic(err); mapped != nil {
		return mapped
	}
	return New(InternalError).WithDetail("%v", err)
}

// InLine returns a copy of err tied to a program line. Shared sentinel
// errors are never modified.
func InLine(err error, line int) *BASICError {
	c := *AsBASIC(err)
	c.LineNumber = line
	return &c
}
