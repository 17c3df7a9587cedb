package domain

import "errors"

var (
	ErrChannelRequired     = errors.New("channel is required")
	ErrTokenUnavailable    = errors.New("stream not found or offline")
	ErrPlaylistUnavailable = errors.New("playlist unavailable")
	ErrTargetNotAllowed    = errors.New("target host not allowed")
	ErrUpstreamTimeout     = errors.New("upstream request timed out")
	ErrTooManyRedirects    = errors.New("too many redirects")
)
