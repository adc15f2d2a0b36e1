// Package core error reference.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Each message also carries the response type written into the
// JSON envelope and the HTTP status the API answers with.
//
// # CSV Errors (CSV001-CSV099)
//
//	CSV001 - Source unreadable: The file could not be read
//	         Action: Check that the file is a readable CSV file
//	         Response: error_datasource
//
//	CSV002 - Conversion failed: A row could not be converted
//	         Action: Check the row quoted in the message for stray quotes
//	         Response: error_bad_request
//
//	CSV003 - Header required: Column name search needs a header row
//	         Action: Reload the file with hasHeaders=true or search by index
//	         Response: error_bad_request
//
//	CSV004 - Column out of range: Column index input is not a valid row index
//	         Action: Use a column index or name that exists in every row
//	         Response: error_bad_request
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - File not found: No file exists at that path
//	SRC002 - Outside data directory: The path leaves the data directory
//	SRC003 - File too large: The file exceeds the configured size limit
//	SRC004 - Unknown encoding: The character encoding is not supported
//
// # Query Errors (QRY001-QRY099)
//
//	QRY001 - Invalid query: A query parameter is missing or malformed
//	QRY002 - No file provided: The filepath parameter is empty
//	QRY003 - No dataset: Nothing is loaded under that ID
//
// # Census Errors (CEN001-CEN099)
//
//	CEN001 - Unknown state
//	CEN002 - Unknown county
//	CEN003 - Census API unavailable (also used when no datasource is configured)
//
// # Load Errors (LOAD001-LOAD099)
//
//	LOAD001 - System busy: Too many loads in progress
//	LOAD002 - Request cancelled
//	LOAD003 - Request timed out
//
// # Auth Errors (AUTH001-AUTH099)
//
// Written by the web middleware before a request reaches a handler, so they
// never pass through MapError.
//
//	AUTH001 - Missing API key: No X-API-Key header on an /api request (401)
//	AUTH002 - Invalid API key: The key matches no configured key (403)
//
// # Rate Limiting (RATE001) and Default (ERR000)
//
// Errors that are not one of the typed kinds above fall back to
// case-insensitive substring patterns, then to ERR000.
package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/JonMunkholm/csvsearch/internal/census"
	"github.com/JonMunkholm/csvsearch/internal/csv"
	"github.com/JonMunkholm/csvsearch/internal/source"
)

// Response types written into the JSON envelope.
const (
	ResponseSuccess    = "success"
	ResponseBadRequest = "error_bad_request"
	ResponseDatasource = "error_datasource"
	ResponseBadJSON    = "error_bad_json"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message  string // What happened (user-friendly)
	Action   string // What to do about it
	Code     string // Error code for support reference
	Response string // Envelope response_type
	Status   int    // HTTP status
}

// errorKind matches errors.Is(err, target).
type errorKind struct {
	target error
	msg    UserMessage
}

// errorKinds is checked in order before any pattern. Specific sentinels
// come before the generic ones they wrap (os.ErrNotExist before
// csv.ErrSourceAccess).
var errorKinds = []errorKind{
	{source.ErrEmptyPath, UserMessage{
		Message:  "No file was provided",
		Action:   "Pass the CSV path relative to the data directory in the filepath parameter",
		Code:     "QRY002",
		Response: ResponseBadRequest,
		Status:   http.StatusBadRequest,
	}},
	{source.ErrOutsideRoot, UserMessage{
		Message:  "The file path leaves the data directory",
		Action:   "Use a path inside the data directory",
		Code:     "SRC002",
		Response: ResponseDatasource,
		Status:   http.StatusForbidden,
	}},
	{source.ErrFileTooLarge, UserMessage{
		Message:  "File exceeds the maximum size limit",
		Action:   "Split the file into smaller files",
		Code:     "SRC003",
		Response: ResponseDatasource,
		Status:   http.StatusRequestEntityTooLarge,
	}},
	{source.ErrUnknownEncoding, UserMessage{
		Message:  "The character encoding is not supported",
		Action:   "Use utf-8, windows-1252, latin1 or a DOS code page such as cp850",
		Code:     "SRC004",
		Response: ResponseBadRequest,
		Status:   http.StatusBadRequest,
	}},
	{os.ErrNotExist, UserMessage{
		Message:  "No file exists at that path",
		Action:   "Make sure your csv's filepath is correct",
		Code:     "SRC001",
		Response: ResponseDatasource,
		Status:   http.StatusNotFound,
	}},
	{csv.ErrSourceAccess, UserMessage{
		Message:  "The file could not be read",
		Action:   "Check that the file is a readable CSV file",
		Code:     "CSV001",
		Response: ResponseDatasource,
		Status:   http.StatusUnprocessableEntity,
	}},
	{csv.ErrConversion, UserMessage{
		Message:  "A row could not be converted",
		Action:   "Check the row for unbalanced quotes",
		Code:     "CSV002",
		Response: ResponseBadRequest,
		Status:   http.StatusUnprocessableEntity,
	}},
	{csv.ErrIndexOutOfRange, UserMessage{
		Message:  "Column index input is not a valid row index",
		Action:   "Use a column index or name that exists in every row",
		Code:     "CSV004",
		Response: ResponseBadRequest,
		Status:   http.StatusBadRequest,
	}},
	{ErrNoDataset, UserMessage{
		Message:  "No dataset is loaded",
		Action:   "Make sure your csv is loaded with /loadcsv",
		Code:     "QRY003",
		Response: ResponseDatasource,
		Status:   http.StatusNotFound,
	}},
	{census.ErrUnknownState, UserMessage{
		Message:  "Unknown state",
		Action:   "Use the full state name, e.g. California",
		Code:     "CEN001",
		Response: ResponseBadRequest,
		Status:   http.StatusBadRequest,
	}},
	{census.ErrUnknownCounty, UserMessage{
		Message:  "Unknown county",
		Action:   "Use the full county name, e.g. Orange County, California",
		Code:     "CEN002",
		Response: ResponseBadRequest,
		Status:   http.StatusBadRequest,
	}},
	{census.ErrDatasource, UserMessage{
		Message:  "The census API could not be reached",
		Action:   "Please try again in a few moments",
		Code:     "CEN003",
		Response: ResponseDatasource,
		Status:   http.StatusBadGateway,
	}},
	{ErrCensusUnavailable, UserMessage{
		Message:  "Broadband lookups are not enabled",
		Action:   "Configure CENSUS_BASE_URL or enable CENSUS_MOCK",
		Code:     "CEN003",
		Response: ResponseDatasource,
		Status:   http.StatusServiceUnavailable,
	}},
	{ErrTooManyLoads, UserMessage{
		Message:  "System is busy loading other files",
		Action:   "Please wait a moment and try again",
		Code:     "LOAD001",
		Response: ResponseDatasource,
		Status:   http.StatusServiceUnavailable,
	}},
	{context.Canceled, UserMessage{
		Message:  "Request was cancelled",
		Action:   "Please try again",
		Code:     "LOAD002",
		Response: ResponseDatasource,
		Status:   499,
	}},
	{context.DeadlineExceeded, UserMessage{
		Message:  "Request timed out",
		Action:   "Try a smaller file or try again later",
		Code:     "LOAD003",
		Response: ResponseDatasource,
		Status:   http.StatusGatewayTimeout,
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps error text (case-insensitive) to user messages for
// errors that do not carry a typed kind. The first match wins.
var errorPatterns = []errorPattern{
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message:  "Too many requests",
			Action:   "Please wait a moment before trying again",
			Code:     "RATE001",
			Response: ResponseBadRequest,
			Status:   http.StatusTooManyRequests,
		},
	},
	{
		pattern: "invalid character",
		msg: UserMessage{
			Message:  "The response could not be encoded as JSON",
			Action:   "Please try again or contact support",
			Code:     "ERR000",
			Response: ResponseBadJSON,
			Status:   http.StatusInternalServerError,
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message:  "Unable to connect to database",
			Action:   "Please try again in a few moments",
			Code:     "ERR000",
			Response: ResponseDatasource,
			Status:   http.StatusServiceUnavailable,
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
// Support staff should check application logs for the original technical
// error when users report ERR000.
var defaultMessage = UserMessage{
	Message:  "An unexpected error occurred",
	Action:   "Please try again or contact support",
	Code:     "ERR000",
	Response: ResponseDatasource,
	Status:   http.StatusInternalServerError,
}

// MapError converts a technical error to a user-friendly message.
//
// Invalid queries keep their reason as the message, since it already tells
// the user which parameter to fix. Header-less name searches get CSV003.
//
// Example:
//
//	_, err := svc.Search(ctx, core.SearchRequest{Mode: "index", Column: "x"})
//	msg := MapError(err)
//	// msg.Code == "QRY001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var invalid *csv.InvalidQueryError
	if errors.As(err, &invalid) {
		if invalid.Reason == csv.ReasonHeadersRequired {
			return UserMessage{
				Message:  "Column name search needs a header row",
				Action:   "Reload the file with hasHeaders=true or search by index",
				Code:     "CSV003",
				Response: ResponseBadRequest,
				Status:   http.StatusBadRequest,
			}
		}
		return UserMessage{
			Message:  capitalize(invalid.Reason),
			Action:   "Check the query parameters and try again",
			Code:     "QRY001",
			Response: ResponseBadRequest,
			Status:   http.StatusBadRequest,
		}
	}

	var outOfRange *csv.IndexOutOfRangeError
	if errors.As(err, &outOfRange) && outOfRange.Column != "" {
		return UserMessage{
			Message:  fmt.Sprintf("No column named %q", outOfRange.Column),
			Action:   "Use a column name from the header row",
			Code:     "CSV004",
			Response: ResponseBadRequest,
			Status:   http.StatusBadRequest,
		}
	}

	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.msg
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

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
