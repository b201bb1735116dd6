package discord

import (
	"fmt"
	"testing"

	"playlink/internal/application"

	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: no active code 482913", application.ErrNotFound), "Code not found. Check the code shown in game and try again."},
		{fmt.Errorf("%w: support role required", application.ErrForbidden), "You don't have permission to do that."},
		{fmt.Errorf("%w: game account PF-1 is already linked to this caller", application.ErrConflict), "That game account is already linked to you."},
		{fmt.Errorf("boom"), "Internal error. Please try again later."},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, userMessage(tt.err))
	}
}
