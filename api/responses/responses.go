package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "github.com/angelmondragon/cakeshop-backend/pkg/errors"
	"github.com/angelmondragon/cakeshop-backend/pkg/logger"
	"github.com/angelmondragon/cakeshop-backend/pkg/types"
)

// codes whose service message is safe to show clients verbatim
var clientFacingCodes = map[pkgerrors.Code]bool{
	pkgerrors.CodeValidation:   true,
	pkgerrors.CodeUnauthorized: true,
	pkgerrors.CodeNotFound:     true,
	pkgerrors.CodeConflict:     true,
	pkgerrors.CodeIdempotency:  true,
	pkgerrors.CodeRateLimit:    true,
}

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data})
}

// WriteNoContent writes a bare 204.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError renders err as the error envelope. Untyped errors become
// INTERNAL_ERROR so raw messages never reach the client.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	if meta.Retryable {
		w.Header().Set("Retry-After", "1")
	}
	logFailure(ctx, logg, err, meta.HTTPStatus)
	writeJSON(w, meta.HTTPStatus, envelopeFor(typed, meta))
}

func envelopeFor(typed *pkgerrors.Error, meta pkgerrors.Metadata) types.ErrorEnvelope {
	apiErr := types.APIError{
		Code:    string(typed.Code()),
		Message: meta.PublicMessage,
	}
	if clientFacingCodes[typed.Code()] && typed.Message() != "" {
		apiErr.Message = typed.Message()
	}
	if meta.DetailsAllowed {
		apiErr.Details = typed.Details()
	}
	return types.ErrorEnvelope{Error: apiErr}
}

// logFailure logs server faults at error level and client rejections at warn.
func logFailure(ctx context.Context, logg *logger.Logger, err error, status int) {
	if logg == nil {
		return
	}
	dump := pkgerrors.Dump(err)
	ctx = logg.WithFields(ctx, map[string]any{
		"error":         dump.TopMessage,
		"error_code":    dump.Code,
		"error_chain":   dump.Chain,
		"pg_code":       dump.PGCode,
		"pg_detail":     dump.PGDetail,
		"pg_message":    dump.PGMessage,
		"pg_table":      dump.PGTable,
		"pg_column":     dump.PGColumn,
		"pg_constraint": dump.PGConstraint,
	})
	if status >= http.StatusInternalServerError {
		logg.Error(ctx, "request.error", err)
		return
	}
	logg.Warn(ctx, "request.rejected")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// the status line is already out, a failed encode can only truncate the body
	_ = json.NewEncoder(w).Encode(payload)
}
