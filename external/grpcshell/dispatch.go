package grpcshell

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	flexsearch "github.com/kkkqkx123/flexsearch"
)

// Dispatch runs fn and translates any error it returns into a gRPC status
// error per §7's propagation policy: caller errors (empty query, invalid
// id, invalid options, bad regex, oversize encoder config, empty content,
// invalid config) become codes.InvalidArgument; ErrNotFound becomes
// codes.NotFound; everything else, including storage and serialization
// failures, becomes codes.Internal. A nil error passes through unchanged.
func Dispatch[T any](fn func() (T, error)) (T, error) {
	result, err := fn()
	if err == nil {
		return result, nil
	}
	return result, toStatus(err)
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, flexsearch.ErrEmptyContent),
		errors.Is(err, flexsearch.ErrInvalidID),
		errors.Is(err, flexsearch.ErrEmptyQuery),
		errors.Is(err, flexsearch.ErrInvalidOptions),
		errors.Is(err, flexsearch.ErrInvalidRegex),
		errors.Is(err, flexsearch.ErrEncodingOversize),
		errors.Is(err, flexsearch.ErrConfigInvalid):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, flexsearch.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
