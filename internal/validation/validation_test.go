package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatterd/chatterd/pkg/api"
)

func TestValidator_ValidMessage(t *testing.T) {
	v := New()

	ok, errs := v.Validate(api.CreateMessageRequest{Content: "hi"})
	assert.True(t, ok)
	assert.Empty(t, errs)
}

func TestValidator_MissingContent(t *testing.T) {
	v := New()

	ok, errs := v.Validate(api.CreateMessageRequest{})
	assert.False(t, ok)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "content")
	assert.Contains(t, errs[0], "required")
}

func TestValidator_ContentTooLong(t *testing.T) {
	v := New()

	ok, errs := v.Validate(api.CreateMessageRequest{Content: strings.Repeat("x", 201)})
	assert.False(t, ok)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "must not exceed 200 characters")
}

func TestValidator_ContentAtLimit(t *testing.T) {
	v := New()

	ok, errs := v.Validate(api.CreateMessageRequest{Content: strings.Repeat("x", 200)})
	assert.True(t, ok)
	assert.Empty(t, errs)
}

func TestValidator_AccumulatesAllViolations(t *testing.T) {
	v := New()

	ok, errs := v.Validate(api.RegisterRequest{Username: "al", Password: "p"})
	assert.False(t, ok)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "username")
	assert.Contains(t, errs[1], "password")
}
