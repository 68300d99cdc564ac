package service

import "github.com/kriwitj/nso-forms/internal/apperr"

var (
	ErrUnauthorized       = apperr.Unauthorized("unauthorized")
	ErrInvalidCredentials = apperr.Unauthorized("invalid_credentials")
	ErrInvalidTicket      = apperr.Unauthorized("invalid_ticket")

	ErrNotApproved = apperr.Forbidden("not_approved")
	ErrForbidden   = apperr.Forbidden("forbidden")
	ErrFormClosed  = apperr.Forbidden("form_closed")

	ErrNotFound = apperr.NotFound("not_found")

	ErrMissingFields    = apperr.BadRequest("missing_fields")
	ErrInvalidPayload   = apperr.BadRequest("invalid_payload")
	ErrInvalidTheme     = apperr.BadRequest("invalid_theme")
	ErrInvalidType      = apperr.BadRequest("invalid_type")
	ErrInvalidWindow    = apperr.BadRequest("invalid_window")
	ErrInvalidFormat    = apperr.BadRequest("invalid_format")
	ErrMissingRequired  = apperr.BadRequest("missing_required")
	ErrCannotDeleteSelf = apperr.BadRequest("cannot_delete_self")
	ErrCannotDemoteSelf = apperr.BadRequest("cannot_demote_self")

	ErrEmailExists    = apperr.Conflict("email_exists")
	ErrExportNotReady = apperr.Conflict("export_not_ready")

	ErrTooManyRequests = apperr.TooManyRequests("too_many_requests")
)
