// Package apperr berisi taksonomi error yang dipakai server maupun console.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation   Kind = "validation"
	KindConflict     Kind = "conflict"
	KindNotFound     Kind = "not_found"
	KindUnauthorized Kind = "unauthorized"
	// KindTransient: jaringan / 5xx, selalu boleh dicoba ulang.
	KindTransient Kind = "transient"
	KindInternal  Kind = "internal"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	// Field diisi untuk error validasi (mis. "diagnosis", "prescriptions[1].quantity").
	Field string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Retryable true untuk error yang bisa diulang tanpa mengubah input.
func (e *Error) Retryable() bool {
	return e.Kind == KindTransient || e.Kind == KindConflict
}

func Validation(field, code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message, Field: field}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Code: "unauthorized", Message: message}
}

func Transient(code string, cause error) *Error {
	return &Error{Kind: KindTransient, Code: code, Message: "layanan sedang tidak tersedia, silakan coba lagi", Cause: cause}
}

func Internal(code string, cause error) *Error {
	return &Error{Kind: KindInternal, Code: code, Message: "terjadi kesalahan internal", Cause: cause}
}

// KindOf mengembalikan Kind dari error; error biasa dianggap internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message mengambil pesan yang aman ditampilkan ke pengguna.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
