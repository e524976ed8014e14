package twitter

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// oauth1Signer produces per-request OAuth 1.0a HMAC-SHA1 Authorization
// headers (spec §4.3.3, GLOSSARY "OAuth 1.0a signing"): a signature
// computed over a canonicalized parameter string, consumer keys fixed
// per app, token and token secret varying per account.
type oauth1Signer struct {
	consumerKey    string
	consumerSecret string
}

func newOAuth1Signer(consumerKey, consumerSecret string) *oauth1Signer {
	return &oauth1Signer{consumerKey: consumerKey, consumerSecret: consumerSecret}
}

// sign builds the Authorization header value for a request to method+rawURL
// with the given access token/secret and any additional body/query
// parameters that must be included in the signature base string (per
// OAuth 1.0a, query params always participate; form params participate
// only when the body is application/x-www-form-urlencoded, which none of
// these endpoints use — APPEND's chunk body is multipart and excluded).
func (s *oauth1Signer) sign(method, rawURL, accessToken, tokenSecret string, extra url.Values) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	baseURL := fmt.Sprintf("%s://%s%s", parsed.Scheme, parsed.Host, parsed.Path)

	params := url.Values{}
	for k, vs := range parsed.Query() {
		params[k] = vs
	}
	for k, vs := range extra {
		params[k] = vs
	}

	nonce, err := randomNonce()
	if err != nil {
		return "", err
	}
	params.Set("oauth_consumer_key", s.consumerKey)
	params.Set("oauth_nonce", nonce)
	params.Set("oauth_signature_method", "HMAC-SHA1")
	params.Set("oauth_timestamp", strconv.FormatInt(time.Now().Unix(), 10))
	params.Set("oauth_token", accessToken)
	params.Set("oauth_version", "1.0")

	signature := s.computeSignature(method, baseURL, params, tokenSecret)
	params.Set("oauth_signature", signature)

	var oauthKeys []string
	for k := range params {
		if strings.HasPrefix(k, "oauth_") {
			oauthKeys = append(oauthKeys, k)
		}
	}
	sort.Strings(oauthKeys)

	var b strings.Builder
	b.WriteString("OAuth ")
	for i, k := range oauthKeys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, `%s="%s"`, percentEncode(k), percentEncode(params.Get(k)))
	}
	return b.String(), nil
}

func (s *oauth1Signer) computeSignature(method, baseURL string, params url.Values, tokenSecret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var paramParts []string
	for _, k := range keys {
		for _, v := range params[k] {
			paramParts = append(paramParts, percentEncode(k)+"="+percentEncode(v))
		}
	}
	paramString := strings.Join(paramParts, "&")

	base := strings.ToUpper(method) + "&" + percentEncode(baseURL) + "&" + percentEncode(paramString)
	signingKey := percentEncode(s.consumerSecret) + "&" + percentEncode(tokenSecret)

	mac := hmac.New(sha1.New, []byte(signingKey))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func randomNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// percentEncode implements RFC 3986 encoding as OAuth 1.0a requires it,
// which differs from net/url's QueryEscape in encoding a space as %20,
// not "+".
func percentEncode(s string) string {
	var b strings.Builder
	for _, c := range []byte(s) {
		if isUnreserved(c) {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '.' || c == '_' || c == '~':
		return true
	default:
		return false
	}
}
