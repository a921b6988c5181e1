// File: internal/uierr/errors.go
package uierr

import (
	"errors"
	"fmt"
)

// Code is a stable numeric error code reported to automation clients.
type Code int

const (
	ValidationFail            Code = -2
	Unknown                   Code = -1
	Common                    Code = 1
	UIDriverConnectionError   Code = 9
	CEFBrowserConnectionError Code = 10
	NonsupportOperation       Code = 13
	NoSuchWindow              Code = 100
	NoSuchElement             Code = 101
	NoSuchFrame               Code = 102
	PageIsLoading             Code = 103
	FrameIsLoading            Code = 104
	JavaScriptError           Code = 105
	NoSuchElementID           Code = 106
	NoSuchImage               Code = 107
	Timeout                   Code = 108
	AIError                   Code = 109
	DriverInputError          Code = 110
	CDPMethodNotFound         Code = 111
	NoSuchOCREngine           Code = 112
	CreateTableSelectorError  Code = 113
	CalcSimilarPathError      Code = 114
	MultiElementID            Code = 115

	DateSelectorBuildFailedExtractYearMonth    Code = 5010004
	DateSelectorBuildFailedDetailsFromPoints   Code = 5010005
	DateSelectorBuildFailedPanelBaseFromPoints Code = 5010006
	DateSelectorBuildFailedDatesFromPoints     Code = 5010007
	DateSelectorBuildFailedSelectorFromPoints  Code = 5010008
	DateSelectorBuildFailedVerifyButton        Code = 5010009
)

var codeNames = map[Code]string{
	ValidationFail:            "ValidationFail",
	Unknown:                   "Unknown",
	Common:                    "Common",
	UIDriverConnectionError:   "UIDriverConnectionError",
	CEFBrowserConnectionError: "CEFBrowserConnectionError",
	NonsupportOperation:       "NonsupportOperation",
	NoSuchWindow:              "NoSuchWindow",
	NoSuchElement:             "NoSuchElement",
	NoSuchFrame:               "NoSuchFrame",
	PageIsLoading:             "PageIsLoading",
	FrameIsLoading:            "FrameIsLoading",
	JavaScriptError:           "JavaScriptError",
	NoSuchElementID:           "NoSuchElementID",
	NoSuchImage:               "NoSuchImage",
	Timeout:                   "Timeout",
	AIError:                   "AIError",
	DriverInputError:          "DriverInputError",
	CDPMethodNotFound:         "CDPMethodNotFound",
	NoSuchOCREngine:           "NoSuchOCREngine",
	CreateTableSelectorError:  "CreateTableSelectorError",
	CalcSimilarPathError:      "CalcSimilarPathError",
	MultiElementID:            "MultiElementID",

	DateSelectorBuildFailedExtractYearMonth:    "DateSelector_Build_Failed_ExtractYearMonth",
	DateSelectorBuildFailedDetailsFromPoints:   "DateSelector_Build_Failed_Details_From_Points",
	DateSelectorBuildFailedPanelBaseFromPoints: "DateSelector_Build_Failed_PanelBase_From_Points",
	DateSelectorBuildFailedDatesFromPoints:     "DateSelector_Build_Failed_Dates_From_Points",
	DateSelectorBuildFailedSelectorFromPoints:  "DateSelector_Build_Failed_DateSelector_From_Points",
	DateSelectorBuildFailedVerifyButton:        "DateSelector_Build_Failed_Verify_Btn_Error",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Error is an error carrying a stable Code.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a coded error around a cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%d): %s: %v", e.Code, int(e.Code), e.Message, e.Err)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, int(e.Code), e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf extracts the code of the first coded error in err's chain.
// Errors without a code report Unknown.
func CodeOf(err error) Code {
	if err == nil {
		return 0
	}
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return Unknown
}

// PatternError is returned when a recorded regular expression does not compile.
type PatternError struct {
	Pattern string
	// Message is already localized.
	Message string
	Err     error
}

func (e *PatternError) Error() string {
	return e.Message
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// ConstructionError reports a selector construction invariant violation.
type ConstructionError struct {
	Op      string
	Message string
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// StructuralError reports a tree helper called with unusable input.
type StructuralError struct {
	Op      string
	Message string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

var (
	// ErrUnknownOperator is wrapped by payload parsing when an attribute operator is not recognised.
	ErrUnknownOperator = errors.New("unknown selector operator")
	// ErrUnknownNodeType is wrapped by payload parsing when a feature node type is not recognised.
	ErrUnknownNodeType = errors.New("unknown feature selector node type")
	// ErrUnknownVisualAttribute is wrapped by payload parsing when a visual attribute is not recognised.
	ErrUnknownVisualAttribute = errors.New("unknown visual attribute")
)
