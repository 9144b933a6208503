package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	req := require.New(t)

	tests := []struct {
		err  error
		kind Kind
	}{
		{NotFound("room %s not found", "r1"), KindNotFound},
		{Forbidden("user banned"), KindForbidden},
		{InvalidState("already live"), KindInvalidState},
		{RateLimited("slow mode"), KindRateLimited},
		{AlreadyVoted("user voted"), KindAlreadyVoted},
		{InvalidInput("bad option"), KindInvalidInput},
	}
	for _, tc := range tests {
		req.Equal(tc.kind, KindOf(tc.err), tc.err.Error())
	}
}

func TestKindOf_ForeignError(t *testing.T) {
	req := require.New(t)

	req.Equal(KindUnknown, KindOf(errors.New("plain")))
	req.Equal(KindUnknown, KindOf(nil))
}

func TestKindOf_Wrapped(t *testing.T) {
	req := require.New(t)

	// The kind survives fmt.Errorf wrapping at call sites.
	wrapped := fmt.Errorf("sending message: %w", RateLimited("slow mode: retry in 3s"))
	req.Equal(KindRateLimited, KindOf(wrapped))
	req.Contains(wrapped.Error(), "slow mode")
}
