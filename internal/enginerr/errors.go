// Package enginerr defines the applydiff engine's error taxonomy.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package enginerr

import (
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes for the patch engine.
const (
	CodeParseMalformed     errors.ErrorCode = "APD1000"
	CodeParseLimitExceeded errors.ErrorCode = "APD1001"
	CodePathEscape         errors.ErrorCode = "APD1002"
	CodeFileIO             errors.ErrorCode = "APD1003"
	CodeFileTooLarge       errors.ErrorCode = "APD1004"
	CodeNoMatch            errors.ErrorCode = "APD1005"
	CodeAmbiguousMatch     errors.ErrorCode = "APD1006"
	CodeBackupFailure      errors.ErrorCode = "APD1007"
)

// Fatal reports whether a code is classed as invocation-fatal rather than
// per-block. Preview and Apply return the parse codes as errors; a
// BackupFailure raised while committing a block is reported as that
// block's Skipped-IOError outcome and the invocation continues.
func Fatal(code errors.ErrorCode) bool {
	switch code {
	case CodeParseMalformed, CodeParseLimitExceeded, CodeBackupFailure:
		return true
	default:
		return false
	}
}

// EngineError is an enhanced error carrying the block/file context that
// produced it, built on go-errors.
type EngineError struct {
	goError *errors.Error
	File    string
}

// New creates an EngineError for the given code, file, and message.
func New(code errors.ErrorCode, file, message string) *EngineError {
	err := errors.New(code, message).
		WithContext("file", file).
		WithSeverity(severityFor(code))

	return &EngineError{goError: err, File: file}
}

func severityFor(code errors.ErrorCode) string {
	if Fatal(code) {
		return "critical"
	}
	return "warning"
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, e.goError.Error())
	}
	return e.goError.Error()
}

// Code returns the underlying error code.
func (e *EngineError) Code() errors.ErrorCode {
	return e.goError.ErrorCode()
}

// IsFatal reports whether this error should abort the whole invocation.
func (e *EngineError) IsFatal() bool {
	return Fatal(e.Code())
}

// UserMessage returns the user-friendly message.
func (e *EngineError) UserMessage() string {
	return e.goError.UserMessage()
}

// WithUserMessage attaches a user-facing message and returns the error for chaining.
func (e *EngineError) WithUserMessage(msg string) *EngineError {
	e.goError.WithUserMessage(msg)
	return e
}

// WithContext attaches structured context and returns the error for chaining.
func (e *EngineError) WithContext(key string, value interface{}) *EngineError {
	e.goError.WithContext(key, value)
	return e
}

// Unwrap exposes the underlying go-errors value for errors.Is/As chains.
func (e *EngineError) Unwrap() error {
	return e.goError
}

// Constructors, one per taxonomy row.

func ParseMalformed(message string) *EngineError {
	return New(CodeParseMalformed, "", message).
		WithUserMessage("the patch document is malformed")
}

func ParseLimitExceeded(message string) *EngineError {
	return New(CodeParseLimitExceeded, "", message).
		WithUserMessage("the patch document exceeds engine limits")
}

func PathEscape(file, message string) *EngineError {
	return New(CodePathEscape, file, message).
		WithUserMessage("the patch targets a path outside the project root")
}

func FileIO(file, message string) *EngineError {
	return New(CodeFileIO, file, message).
		WithUserMessage("a file could not be read or written")
}

func FileTooLarge(file, message string) *EngineError {
	return New(CodeFileTooLarge, file, message).
		WithUserMessage("the target file exceeds the engine's size limit")
}

func NoMatch(file, message string) *EngineError {
	return New(CodeNoMatch, file, message).
		WithUserMessage("no sufficiently similar region was found")
}

func AmbiguousMatch(file, message string) *EngineError {
	return New(CodeAmbiguousMatch, file, message).
		WithUserMessage("more than one equally plausible region was found")
}

func BackupFailure(file, message string) *EngineError {
	return New(CodeBackupFailure, file, message).
		WithUserMessage("the pre-image backup could not be written").
		AsRetryable()
}

// AsRetryable marks the error as retryable and returns it for chaining.
func (e *EngineError) AsRetryable() *EngineError {
	e.goError.AsRetryable()
	return e
}

// IsRetryable reports whether the error is retryable.
func (e *EngineError) IsRetryable() bool {
	return e.goError.IsRetryable()
}
