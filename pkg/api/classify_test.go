package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAuthExpiredMessage(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{msg: "Unauthorized", want: true},
		{msg: "403 Forbidden", want: true},
		{msg: "no autorizado", want: true},
		{msg: "Token expired, please sign in again", want: true},
		{msg: "token invalid", want: true},
		{msg: "Token inválido", want: true},
		{msg: "token vencido", want: true},
		{msg: "session expired", want: true},
		{msg: "Sesión expirada", want: true},
		{msg: "auth expired", want: true},

		{msg: "", want: false},
		{msg: "product not found", want: false},
		{msg: "out of stock", want: false},
		{msg: "invalid quantity", want: false},
		{msg: "session started", want: false},
		{msg: "coupon expired", want: false},
		{msg: "authentication service ready", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAuthExpiredMessage(tt.msg), "message: %q", tt.msg)
		})
	}
}
