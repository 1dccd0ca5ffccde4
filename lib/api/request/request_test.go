package request

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name string `json:"name"`
}

func (p *payload) Bind(_ *http.Request) error {
	if p.Name == "" {
		return errors.New("name required")
	}
	return nil
}

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestBind(t *testing.T) {
	var p payload
	require.NoError(t, Bind(post(`{"name":"bundle"}`), &p))
	assert.Equal(t, "bundle", p.Name)

	assert.ErrorContains(t, Bind(post(`{"name":"a","admin":true}`), &payload{}), "unknown field")
	assert.ErrorContains(t, Bind(post(`{"name":"a"}{"name":"b"}`), &payload{}), "unexpected data")
	assert.ErrorContains(t, Bind(post(``), &payload{}), "empty body")
	assert.ErrorContains(t, Bind(post(`{}`), &payload{}), "name required")
}
