package printing

import "fmt"

// Error codes carried by the printing domain errors.
const (
	ErrCodeInputInvalid       = "INPUT_INVALID"
	ErrCodeUnknownOption      = "UNKNOWN_OPTION"
	ErrCodeInvalidOptionValue = "INVALID_OPTION_VALUE"
)

// InputError reports a missing or malformed URL or HTML payload.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return e.Reason
}

// Code returns the error code
func (e *InputError) Code() string { return ErrCodeInputInvalid }

// UnknownOptionError reports an option name outside the schema.
type UnknownOptionError struct {
	Name string
}

func (e *UnknownOptionError) Error() string {
	return fmt.Sprintf("unknown option : %s", e.Name)
}

// Code returns the error code
func (e *UnknownOptionError) Code() string { return ErrCodeUnknownOption }

// InvalidOptionValueError reports an option value rejected by its validator.
type InvalidOptionValueError struct {
	Name  string
	Value string
}

func (e *InvalidOptionValueError) Error() string {
	return fmt.Sprintf("The option %s doesn't pass the test", e.Name)
}

// Code returns the error code
func (e *InvalidOptionValueError) Code() string { return ErrCodeInvalidOptionValue }

// CodedError is implemented by every printing domain error.
type CodedError interface {
	error
	Code() string
}

var (
	_ CodedError = (*InputError)(nil)
	_ CodedError = (*UnknownOptionError)(nil)
	_ CodedError = (*InvalidOptionValueError)(nil)
)
