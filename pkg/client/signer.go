package client

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"strings"
	"time"
)

const (
	// ContentType is the JSON:API media type the ESP API expects
	ContentType = "application/vnd.api+json"

	authScheme = "APIAuth"
)

// Signer adds APIAuth HMAC headers to ESP requests.
//
// The signature is base64(HMAC-SHA1(secret, canonical)) where canonical is
// "content-type,content-md5,request-uri,date".
type Signer struct {
	AccessKeyID     string
	SecretAccessKey string
}

// Sign sets Content-Type, Content-MD5, Date and Authorization on req
func (s *Signer) Sign(req *http.Request, body []byte, now time.Time) {
	date := now.UTC().Format(http.TimeFormat)
	contentMD5 := ContentMD5(body)

	req.Header.Set("Content-Type", ContentType)
	req.Header.Set("Content-MD5", contentMD5)
	req.Header.Set("Date", date)

	canonical := CanonicalString(ContentType, contentMD5, req.URL.RequestURI(), date)
	req.Header.Set("Authorization", authScheme+" "+s.AccessKeyID+":"+s.Signature(canonical))
}

// Signature returns the base64 HMAC-SHA1 of canonical under the secret key
func (s *Signer) Signature(canonical string) string {
	mac := hmac.New(sha1.New, []byte(s.SecretAccessKey))
	mac.Write([]byte(canonical))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// CanonicalString joins the signed request parts in APIAuth order
func CanonicalString(contentType, contentMD5, requestURI, date string) string {
	return strings.Join([]string{contentType, contentMD5, requestURI, date}, ",")
}

// ContentMD5 returns the base64 MD5 digest of body
func ContentMD5(body []byte) string {
	sum := md5.Sum(body)
	return base64.StdEncoding.EncodeToString(sum[:])
}
