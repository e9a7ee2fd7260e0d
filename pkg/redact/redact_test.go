package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "authorization bearer header",
			input:    "curl -H 'Authorization: Bearer abc123' https://example.com",
			expected: "curl -H 'Authorization: Bearer <REDACTED> https://example.com",
		},
		{
			name:     "bare bearer",
			input:    "send bearer xyz.987",
			expected: "send bearer <REDACTED>",
		},
		{
			name:     "token equals",
			input:    "tool --auth token=xyz999",
			expected: "tool --auth token=<REDACTED>",
		},
		{
			name:     "token colon keeps separator",
			input:    "TOKEN:abc",
			expected: "TOKEN:<REDACTED>",
		},
		{
			name:     "api key variants",
			input:    "api_key=1 api-key=2 apikey:3 APIKEY=4",
			expected: "api_key=<REDACTED> api-key=<REDACTED> apikey:<REDACTED> APIKEY=<REDACTED>",
		},
		{
			name:     "password",
			input:    "mount password=hunter2 /Volumes/x",
			expected: "mount password=<REDACTED> /Volumes/x",
		},
		{
			name:     "client secret and id",
			input:    "client_secret=s1 client-secret:s2 client_id=i1 clientid=i2",
			expected: "client_secret=<REDACTED> client-secret:<REDACTED> client_id=<REDACTED> clientid=<REDACTED>",
		},
		{
			name:     "authorization basic",
			input:    "Authorization: Basic dXNlcjpwYXNz",
			expected: "Authorization: <REDACTED> dXNlcjpwYXNz",
		},
		{
			name:     "authorization raw token",
			input:    "authorization:abcdef",
			expected: "authorization:<REDACTED>",
		},
		{
			name:     "nothing sensitive",
			input:    "/usr/bin/id -u alice",
			expected: "/usr/bin/id -u alice",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Sanitize(tt.input))
		})
	}
}

func TestSanitize_AuthorizationBearer(t *testing.T) {
	out := Sanitize("Authorization: Bearer abc123")

	assert.Contains(t, out, "Authorization: Bearer <REDACTED>")
	assert.NotContains(t, out, "abc123")
}

func TestSanitize_BearerHeaderNotDoubleRedacted(t *testing.T) {
	out := Sanitize("Authorization: BEARER abc123")

	assert.Equal(t, "Authorization: BEARER <REDACTED>", out)
}

func TestSanitizeArgs(t *testing.T) {
	out := SanitizeArgs([]string{"curl", "-H", "token=xyz999"})

	assert.Contains(t, out, "token=<REDACTED>")
	assert.NotContains(t, out, "xyz999")
	assert.Equal(t, "curl -H token=<REDACTED>", out)
}

func TestSanitizeArgs_SplitHeaderIsJoined(t *testing.T) {
	out := SanitizeArgs([]string{"curl", "-H", "Authorization: Bearer", "abc123"})

	assert.Equal(t, "curl -H Authorization: Bearer <REDACTED>", out)
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"Authorization: Bearer abc123",
		"Authorization: token=abc",
		"curl -H token=xyz999 password:pw api-key=k client_id=c client-secret=s",
		"Bearer one Bearer two",
		"Authorization: Basic Zm9v",
		"nothing to hide",
	}

	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), "input %q", in)
	}
}

func TestSanitizer_AdditionalKeys(t *testing.T) {
	s := New(WithAdditionalKeys("enrollment_code", " ", "X-Secret"))

	out := s.Sanitize("enroll enrollment_code=1234 x-secret:abc Authorization: Basic zz")
	assert.Equal(t, "enroll enrollment_code=<REDACTED> x-secret:<REDACTED> Authorization: <REDACTED> zz", out)

	rules := s.Rules()
	require.Len(t, rules, len(DefaultRules())+2)
	assert.Equal(t, "authorization", rules[len(rules)-1].Name, "general Authorization rule stays last")
	assert.Equal(t, "enrollment_code", rules[len(rules)-3].Name)
}

func TestSanitizer_AdditionalKeysAreLiteral(t *testing.T) {
	s := New(WithAdditionalKeys("a.b"))

	assert.Equal(t, "axb=1", s.Sanitize("axb=1"))
	assert.Equal(t, "a.b=<REDACTED>", s.Sanitize("a.b=1"))
}

func TestSanitizer_Placeholder(t *testing.T) {
	s := New(WithPlaceholder("***"))
	assert.Equal(t, "password=***", s.Sanitize("password=secret"))

	withSpace := New(WithPlaceholder("[ hidden ]"))
	assert.Equal(t, "password=<REDACTED>", withSpace.Sanitize("password=secret"))
}

func TestDefaultRulesOrder(t *testing.T) {
	var names []string
	for _, r := range DefaultRules() {
		names = append(names, r.Name)
	}

	assert.Equal(t, []string{
		"authorization-bearer",
		"bearer",
		"token",
		"api-key",
		"password",
		"client-secret",
		"client-id",
		"authorization",
	}, names)
}
