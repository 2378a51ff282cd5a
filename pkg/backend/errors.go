package backend

import (
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rallypoint/rallypoint/pkg/user"
	log "github.com/sirupsen/logrus"
)

const unknownMessage = "An unexpected error occurred"

// Classify turns any error raised below the store boundary into a Failure.
// Failures already present in the chain are returned unchanged.
func Classify(err error) *Failure {
	if err == nil {
		return nil
	}

	var failure *Failure
	if errors.As(err, &failure) {
		return failure
	}

	if errors.Is(err, user.ErrNoUser) {
		return NewFailure(KindUnauthenticated, user.ErrNoUser.Error())
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return &Failure{Kind: KindNotFound, Message: "Resource not found", Code: "PGRST116"}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyPgError(pgErr)
	}

	message := err.Error()
	switch {
	case strings.Contains(message, "JWT"):
		return &Failure{Kind: KindUnauthenticated, Message: "Session expired. Please sign in again.", Code: "AUTH_ERROR"}
	case strings.Contains(message, "Invalid login"):
		return &Failure{Kind: KindUnauthenticated, Message: "Invalid email or password", Code: "INVALID_CREDENTIALS"}
	case strings.Contains(message, "User already registered"):
		return &Failure{Kind: KindConflict, Message: "An account with this email already exists", Code: "USER_EXISTS"}
	}

	if message == "" {
		message = unknownMessage
	}
	log.Debugf("unclassified backend error: %v", err)
	return NewFailure(KindUnknown, message)
}

func classifyPgError(pgErr *pgconn.PgError) *Failure {
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return &Failure{Kind: KindConflict, Message: "Resource already exists", Code: pgErr.Code}
	case pgerrcode.ForeignKeyViolation:
		return &Failure{Kind: KindNotFound, Message: "Referenced resource not found", Code: pgErr.Code}
	case pgerrcode.InsufficientPrivilege:
		return &Failure{Kind: KindPermission, Message: "Access denied", Code: pgErr.Code}
	}

	message := pgErr.Message
	if message == "" {
		message = "Database error occurred"
	}
	if pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) || pgerrcode.IsDataException(pgErr.Code) {
		return &Failure{Kind: KindValidation, Message: message, Code: pgErr.Code}
	}
	return &Failure{Kind: KindUnknown, Message: message, Code: pgErr.Code}
}
