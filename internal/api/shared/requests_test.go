package shared

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleRequest struct {
	Name string `json:"name" validate:"required"`
	Age  int    `json:"age"  validate:"gte=0"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"name":"test","age":30}`},
		{name: "trailing comma", body: `{"name":"test",}`, wantErr: true},
		{name: "empty body", body: "", wantErr: true},
		{name: "unknown field", body: `{"name":"test","admin":true}`, wantErr: true},
		{name: "trailing object", body: `{"name":"a"}{"name":"b"}`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tc.body))
			var target sampleRequest
			err := DecodeJSON(req, &target)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRequestBody)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, "test", target.Name)
		})
	}
}

type selfValidating struct{ ok bool }

func (s selfValidating) Validate() error {
	if !s.ok {
		return assert.AnError
	}
	return nil
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(&sampleRequest{Name: "x"}))
	assert.Error(t, ValidateRequest(&sampleRequest{Age: 1}))
	assert.Error(t, ValidateRequest(&sampleRequest{Name: "x", Age: -1}))

	assert.NoError(t, ValidateRequest(selfValidating{ok: true}))
	assert.ErrorIs(t, ValidateRequest(selfValidating{}), assert.AnError)
}
