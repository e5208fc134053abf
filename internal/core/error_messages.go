package core

// # Error Codes Reference
//
// This file defines operator-facing error messages with codes for support
// reference. When a load fails, the operator can quote the code from the
// command output to whoever owns the pipeline.
//
// Error codes are grouped by category:
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Not found: The source file does not exist
//	         Action: Check the --source path or object key
//	SRC002 - Unsupported input: The source cannot be read as a table
//	         Action: Pass a delimited text or .xlsx file
//	SRC003 - Missing source: No source given for a file-based payer
//	         Action: Pass --source, or use --payer manual
//	SRC004 - Empty source: The file has no header row
//	         Action: Check the export produced a header line
//	SRC005 - Object store: The object store request failed
//	         Action: Check S3 credentials, region and bucket
//
// # Payer Errors (PAY001-PAY099)
//
//	PAY001 - Unknown payer: No rule exists for the payer
//	         Action: Use a configured payer or add it to the rules file
//	PAY002 - Rules file: The payer rules file could not be read
//	         Action: Check PAYER_RULES_FILE or --rules
//
// # Warehouse Errors (WH001-WH099)
//
//	WH001 - Connection: Unable to connect to the warehouse
//	        Action: Check WAREHOUSE_* credentials and network access
//	WH002 - Authentication: The warehouse rejected the credentials
//	WH003 - Timeout: The run exceeded its deadline
//	        Action: Raise LOAD_TIMEOUT or load a smaller file
//
// # Configuration Errors (CFG001-CFG099)
//
//	CFG001 - Invalid configuration
//	         Action: Fix the listed environment variables
//
// # Command Line Errors (CLI001-CLI099)
//
//	CLI001 - Invalid command line: a flag is missing, unknown or malformed
//	         Action: Run claimload -h for usage
//
// # Fallback (ERR000)
//
//	ERR000 - An unexpected error occurred. Check the log for the run ID.

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/JonMunkholm/claimload/internal/config"
)

type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgNotFound = UserMessage{
		Message: "The source file does not exist",
		Action:  "Check the --source path or object key",
		Code:    "SRC001",
	}
	msgUnsupported = UserMessage{
		Message: "The source cannot be read as a table",
		Action:  "Pass a delimited text or .xlsx file",
		Code:    "SRC002",
	}
	msgConnection = UserMessage{
		Message: "Unable to connect to the warehouse",
		Action:  "Check WAREHOUSE_* credentials and network access",
		Code:    "WH001",
	}
	msgUsage = UserMessage{
		Message: "Invalid command line",
		Action:  "Run claimload -h for usage",
		Code:    "CLI001",
	}
	msgTimeout = UserMessage{
		Message: "The run exceeded its deadline",
		Action:  "Raise LOAD_TIMEOUT or load a smaller file",
		Code:    "WH003",
	}
)

// sentinelMessages are checked first, in order, with errors.Is.
var sentinelMessages = []sentinelMessage{
	{err: ErrNotFound, msg: msgNotFound},
	{err: ErrUnsupportedInput, msg: msgUnsupported},
	{err: ErrMissingSource, msg: UserMessage{
		Message: "No source given for a file-based payer",
		Action:  "Pass --source, or use --payer manual",
		Code:    "SRC003",
	}},
	{err: ErrEmptySource, msg: UserMessage{
		Message: "The source file has no header row",
		Action:  "Check the export produced a header line",
		Code:    "SRC004",
	}},
	{err: ErrObjectStore, msg: UserMessage{
		Message: "The object store request failed",
		Action:  "Check S3 credentials, region and bucket",
		Code:    "SRC005",
	}},
	{err: ErrUnknownPayer, msg: UserMessage{
		Message: "No rule exists for the payer",
		Action:  "Use a configured payer or add it to the rules file",
		Code:    "PAY001",
	}},
	{err: ErrRules, msg: UserMessage{
		Message: "The payer rules file could not be read",
		Action:  "Check PAYER_RULES_FILE or --rules",
		Code:    "PAY002",
	}},
	{err: config.ErrInvalid, msg: UserMessage{
		Message: "Invalid configuration",
		Action:  "Fix the listed environment variables",
		Code:    "CFG001",
	}},
	{err: ErrUsage, msg: msgUsage},
	{err: ErrConnection, msg: msgConnection},
	{err: context.DeadlineExceeded, msg: msgTimeout},
	{err: fs.ErrNotExist, msg: msgNotFound},
}

// errorPatterns match the lowercased text of driver and network errors
// that carry no sentinel.
var errorPatterns = []errorPattern{
	{pattern: "password authentication failed", msg: UserMessage{
		Message: "The warehouse rejected the credentials",
		Action:  "Check WAREHOUSE_USER and WAREHOUSE_PASSWORD",
		Code:    "WH002",
	}},
	{pattern: "connection refused", msg: msgConnection},
	{pattern: "no such host", msg: msgConnection},
	{pattern: "i/o timeout", msg: msgTimeout},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the log for the run ID and try again",
	Code:    "ERR000",
}

// MapError converts a technical error to an operator-facing message.
// Sentinel errors are matched with errors.Is; otherwise the error text is
// searched case-insensitively for known driver messages. If nothing matches, a
// generic fallback with code ERR000 is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its operator-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // Message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
