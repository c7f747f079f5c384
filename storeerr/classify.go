package storeerr

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"strings"

	"github.com/jonwraymond/catalogops/auth"
	"github.com/jonwraymond/catalogops/docstore"
	"github.com/jonwraymond/catalogops/resilience"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Message fragments recognized when an error carries no typed cause.
var (
	resourceMissingMessages = []string{
		"no such table",
		"table does not exist",
		"resourcenotfoundexception",
		"collection does not exist",
	}
	credentialsMessages = []string{
		"invalid signature",
		"unrecognizedclientexception",
		"security token",
		"invalid credentials",
		"missing credentials",
		"access denied",
		"unauthorized",
	}
	networkMessages = []string{
		"timeout",
		"timed out",
		"deadline exceeded",
		"connection refused",
		"connection reset",
		"network",
		"database is locked",
		"circuit open",
		"concurrency limit reached",
	}
	validationMessages = []string{
		"validationexception",
		"is required",
		"invalid",
		"condition failed",
	}
	notFoundMessages = []string{
		"not found",
	}
)

// Classify maps err to a StoreError. A nil error yields nil; an error that
// already carries a StoreError yields that StoreError unchanged.
//
// Kinds are tried in order: ResourceMissing, CredentialsInvalid, Network,
// Validation, NotFound, then Unknown.
func Classify(err error) *StoreError {
	return ClassifyOp("", err)
}

// ClassifyOp is Classify with the failing operation recorded.
func ClassifyOp(op string, err error) *StoreError {
	if err == nil {
		return nil
	}
	if se, ok := As(err); ok {
		return se
	}
	return &StoreError{Kind: classify(err), Op: op, Err: err}
}

func classify(err error) Kind {
	code, hasCode := sqliteCode(err)
	msg := strings.ToLower(err.Error())

	switch {
	case errors.Is(err, docstore.ErrTableNotFound),
		containsAny(msg, resourceMissingMessages):
		return ResourceMissing

	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrMissingCredentials),
		errors.Is(err, auth.ErrTokenExpired),
		hasCode && (code == sqlite3lib.SQLITE_AUTH || code == sqlite3lib.SQLITE_PERM),
		containsAny(msg, credentialsMessages):
		return CredentialsInvalid

	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, resilience.ErrCircuitOpen),
		errors.Is(err, resilience.ErrBulkheadFull),
		errors.Is(err, resilience.ErrTimeout),
		isNetError(err),
		hasCode && (code == sqlite3lib.SQLITE_BUSY || code == sqlite3lib.SQLITE_LOCKED),
		containsAny(msg, networkMessages):
		return Network

	case errors.Is(err, docstore.ErrInvalidInput),
		errors.Is(err, docstore.ErrConditionFailed),
		hasCode && code == sqlite3lib.SQLITE_CONSTRAINT,
		containsAny(msg, validationMessages):
		return Validation

	case errors.Is(err, docstore.ErrNotFound),
		errors.Is(err, sql.ErrNoRows),
		containsAny(msg, notFoundMessages):
		return NotFound
	}
	return Unknown
}

// sqliteCode returns the primary result code of a SQLite error.
func sqliteCode(err error) (int, bool) {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return 0, false
	}
	return sqliteErr.Code() & 0xff, true
}

func isNetError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}

func containsAny(msg string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(msg, f) {
			return true
		}
	}
	return false
}
