package keystore

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"strconv"
	"strings"

	"github.com/threatwinds/go-sdk/catcher"
)

// Restriction is what a secured key encodes: a forced filter plus optional
// scoping (§4.1 "Secured-key forced filters", §8 scenario 6).
type Restriction struct {
	Filters        string
	ValidUntil     int64 // unix seconds; 0 means no expiry
	RestrictIndices []string
	UserToken      string
	MaxHitsPerPage int
}

// GenerateSecuredKey builds `base64(base64(hmac_sha256(parentKey, params)) + params)`:
// the base64 signature followed by the URL-encoded params, base64-encoded as a whole.
func GenerateSecuredKey(parentKey string, r Restriction) string {
	params := encodeRestriction(r)
	mac := hmac.New(sha256.New, []byte(parentKey))
	mac.Write([]byte(params))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return base64.StdEncoding.EncodeToString([]byte(signature + params))
}

// ValidateSecuredKey verifies a secured key's HMAC against parentKey and
// returns the restriction it encodes. An invalid signature or malformed key
// yields an error.
func ValidateSecuredKey(parentKey, securedKey string) (Restriction, error) {
	decoded, err := base64.StdEncoding.DecodeString(securedKey)
	if err != nil {
		return Restriction{}, invalidKey("malformed secured key", err)
	}

	sigLen := base64.StdEncoding.EncodedLen(sha256.Size)
	if len(decoded) < sigLen {
		return Restriction{}, invalidKey("secured key too short", nil)
	}

	signature := string(decoded[:sigLen])
	params := string(decoded[sigLen:])

	mac := hmac.New(sha256.New, []byte(parentKey))
	mac.Write([]byte(params))
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return Restriction{}, invalidKey("secured key signature mismatch", nil)
	}

	return decodeRestriction(params), nil
}

func encodeRestriction(r Restriction) string {
	values := url.Values{}
	if r.Filters != "" {
		values.Set("filters", r.Filters)
	}
	if r.ValidUntil != 0 {
		values.Set("validUntil", strconv.FormatInt(r.ValidUntil, 10))
	}
	if len(r.RestrictIndices) > 0 {
		values.Set("restrictIndices", strings.Join(r.RestrictIndices, ","))
	}
	if r.UserToken != "" {
		values.Set("userToken", r.UserToken)
	}
	if r.MaxHitsPerPage > 0 {
		values.Set("maxHitsPerPage", strconv.Itoa(r.MaxHitsPerPage))
	}
	return values.Encode()
}

func decodeRestriction(params string) Restriction {
	values, err := url.ParseQuery(params)
	if err != nil {
		return Restriction{}
	}
	var r Restriction
	r.Filters = values.Get("filters")
	r.UserToken = values.Get("userToken")
	if v := values.Get("validUntil"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			r.ValidUntil = n
		}
	}
	if v := values.Get("restrictIndices"); v != "" {
		r.RestrictIndices = strings.Split(v, ",")
	}
	if v := values.Get("maxHitsPerPage"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			r.MaxHitsPerPage = n
		}
	}
	return r
}

func invalidKey(msg string, cause error) error {
	return catcher.Error(msg, cause, map[string]any{"status": 401, "kind": "invalid_secured_key"})
}
