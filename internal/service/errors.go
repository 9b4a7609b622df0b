package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	Conflict            = 409
	TooManyRequests     = 429
	InternalServerError = 500
	ServiceUnavailable  = 503
)

var (
	ErrParamInvalid         = errors.New("invalid parameters")
	ErrCampaignNotFound     = errors.New("campaign not found")
	ErrPostNotFound         = errors.New("post not found")
	ErrCommentNotFound      = errors.New("comment not found")
	ErrCommentNotPending    = errors.New("comment is not pending")
	ErrCommentNotFailed     = errors.New("only failed comments can be retried")
	ErrPlatformUnsupported  = errors.New("unsupported platform")
	ErrPlatformNotConnected = errors.New("platform account not connected")
	ErrPlatformTokenExpired = errors.New("platform authorization expired, reconnect the account")
	ErrOAuthNotConfigured   = errors.New("platform oauth is not configured")
	ErrOAuthStateInvalid    = errors.New("oauth state is invalid or expired")
	ErrOAuthExchangeFailed  = errors.New("oauth code exchange failed")
	ErrAutopilotBusy        = errors.New("autopilot run already in progress")
	ErrStageInvalid         = errors.New("unknown autopilot stage")
	ErrSearchUnavailable    = errors.New("post search is not available")
	ErrTraceUnavailable     = errors.New("llm traces are not available")
	UnauthorizedError       = errors.New("unauthorized")
	UnExpectedError         = errors.New("unexpected error, please retry later")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:         BadRequest,
	ErrCampaignNotFound:     NotFound,
	ErrPostNotFound:         NotFound,
	ErrCommentNotFound:      NotFound,
	ErrCommentNotPending:    Conflict,
	ErrCommentNotFailed:     Conflict,
	ErrPlatformUnsupported:  BadRequest,
	ErrPlatformNotConnected: BadRequest,
	ErrPlatformTokenExpired: Unauthorized,
	ErrOAuthNotConfigured:   BadRequest,
	ErrOAuthStateInvalid:    BadRequest,
	ErrOAuthExchangeFailed:  BadRequest,
	ErrAutopilotBusy:        Conflict,
	ErrStageInvalid:         BadRequest,
	ErrSearchUnavailable:    ServiceUnavailable,
	ErrTraceUnavailable:     ServiceUnavailable,
	UnauthorizedError:       Unauthorized,
	UnExpectedError:         InternalServerError,
}
