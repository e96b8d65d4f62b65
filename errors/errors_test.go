package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without cause",
			err:  New(ErrCodeInvalidArgument, "size must be positive, got %v", -1.0),
			want: "INVALID_ARGUMENT: size must be positive, got -1",
		},
		{
			name: "with cause",
			err:  Wrap(ErrCodeInvalidConfig, fmt.Errorf("boom"), "reading %s", "a.toml"),
			want: "INVALID_CONFIG: reading a.toml: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsFollowsWrapChain(t *testing.T) {
	inner := New(ErrCodeDepthTooLarge, "depth 11 exceeds 10")
	outer := fmt.Errorf("loading scene: %w", inner)

	if !Is(outer, ErrCodeDepthTooLarge) {
		t.Error("Is should find the code through fmt.Errorf wrapping")
	}
	if Is(outer, ErrCodeInvalidArgument) {
		t.Error("Is should not match a different code")
	}
	if Is(errors.New("plain"), ErrCodeInternal) {
		t.Error("Is should be false for non-structured errors")
	}
}

func TestGetCodeAndUserMessage(t *testing.T) {
	cause := errors.New("disk gone")
	err := Wrap(ErrCodeNotFound, cause, "config %q", "x.toml")

	if GetCode(err) != ErrCodeNotFound {
		t.Errorf("GetCode = %q, want %q", GetCode(err), ErrCodeNotFound)
	}
	if GetCode(cause) != "" {
		t.Errorf("GetCode on plain error = %q, want empty", GetCode(cause))
	}
	if !errors.Is(err, cause) {
		t.Error("Unwrap should expose the cause to errors.Is")
	}
	if UserMessage(err) != `config "x.toml"` {
		t.Errorf("UserMessage = %q", UserMessage(err))
	}
	if UserMessage(cause) != "disk gone" {
		t.Errorf("UserMessage on plain error = %q", UserMessage(cause))
	}
}
