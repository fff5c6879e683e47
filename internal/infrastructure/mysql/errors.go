package mysql

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	apperrors "logiledger/internal/errors"
)

const (
	errDuplicateEntry   = 1062
	errLockWaitTimeout  = 1205
	errDeadlockDetected = 1213
)

func IsDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == errDuplicateEntry
}

func IsDeadlock(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == errDeadlockDetected || mysqlErr.Number == errLockWaitTimeout
	}
	return false
}

// TranslateError maps driver failures onto application error kinds. Errors
// that already carry a kind pass through untouched.
func TranslateError(err error, op string) error {
	if err == nil {
		return nil
	}

	if isAppError(err) {
		return err
	}

	if IsDuplicateKey(err) {
		return apperrors.NewConflictError(fmt.Sprintf("%s: duplicate entry", op))
	}

	if IsDeadlock(err) {
		return apperrors.NewUnavailableError(fmt.Sprintf("%s: lock contention", op), err)
	}

	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return apperrors.NewUnavailableError(fmt.Sprintf("%s: database unavailable", op), err)
	}

	return fmt.Errorf("%s: %w", op, err)
}

func isAppError(err error) bool {
	if _, ok := apperrors.IsNotFoundError(err); ok {
		return true
	}
	if _, ok := apperrors.IsConflictError(err); ok {
		return true
	}
	if _, ok := apperrors.IsInvalidStateError(err); ok {
		return true
	}
	if _, ok := apperrors.IsUnavailableError(err); ok {
		return true
	}
	return false
}
