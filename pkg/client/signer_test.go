package client

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalString(t *testing.T) {
	got := CanonicalString(ContentType, "md5", "/api/v2/users?include=role", "Thu, 15 Jun 2017 17:45:25 GMT")
	assert.Equal(t, "application/vnd.api+json,md5,/api/v2/users?include=role,Thu, 15 Jun 2017 17:45:25 GMT", got)
}

func TestContentMD5(t *testing.T) {
	assert.Equal(t, "1B2M2Y8AsgTpgAmY7PhCfg==", ContentMD5(nil))
	assert.Equal(t, "XrY7u+Ae7tCTyyK7j1rNww==", ContentMD5([]byte("hello world")))
}

func TestSigner_Signature(t *testing.T) {
	// HMAC-SHA1 known answer from RFC 2202 test case 2
	s := &Signer{SecretAccessKey: "Jefe"}
	assert.Equal(t, "7/zfauXrL6LSdBbV8YTfnCWafHk=", s.Signature("what do ya want for nothing?"))
}

func TestSigner_Sign(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "http://esp.example.com/api/v2/users?include=role,teams", nil)
	require.NoError(t, err)

	s := &Signer{AccessKeyID: "key", SecretAccessKey: "secret"}
	now := time.Date(2017, 6, 15, 12, 45, 25, 0, time.FixedZone("EST", -5*3600))
	s.Sign(req, nil, now)

	date := "Thu, 15 Jun 2017 17:45:25 GMT"
	assert.Equal(t, date, req.Header.Get("Date"), "date should be rendered in GMT")
	assert.Equal(t, ContentType, req.Header.Get("Content-Type"))
	assert.Equal(t, ContentMD5(nil), req.Header.Get("Content-MD5"))

	canonical := CanonicalString(ContentType, ContentMD5(nil), "/api/v2/users?include=role,teams", date)
	assert.Equal(t, "APIAuth key:"+s.Signature(canonical), req.Header.Get("Authorization"))
}

func TestSigner_DifferentSecretsDiffer(t *testing.T) {
	a := &Signer{SecretAccessKey: "one"}
	b := &Signer{SecretAccessKey: "two"}
	assert.NotEqual(t, a.Signature("payload"), b.Signature("payload"))
}
