package course

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	nberrors "github.com/yungbote/ottolearn-tutor/internal/pkg/errors"
)

// InvalidIngestionInputError rejects a replace request before anything is written.
type InvalidIngestionInputError struct {
	Reason string
}

func (e *InvalidIngestionInputError) Error() string {
	return "invalid ingestion input: " + e.Reason
}

func (e *InvalidIngestionInputError) Unwrap() error { return nberrors.ErrValidation }

func invalidInput(format string, args ...any) error {
	return &InvalidIngestionInputError{Reason: fmt.Sprintf(format, args...)}
}

// StoreError is any failure raised by the database while reading or writing chunks.
// Code carries the Postgres SQLSTATE when the driver reported one.
type StoreError struct {
	Op   string
	Code string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("course chunk store %s failed (sqlstate %s): %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("course chunk store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error { return []error{nberrors.ErrStore, e.Err} }

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	var ve *InvalidIngestionInputError
	if errors.As(err, &ve) {
		return err
	}
	out := &StoreError{Op: op, Err: err}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		out.Code = pgErr.Code
	}
	return out
}
