package proxyauth

import "github.com/gorilla/securecookie"

// CookieCodec provides authenticated, name-bound encode/decode of the
// sandbox-bound cookie value. A gorilla/securecookie instance HMACs the
// cookie name together with the value, so two different names never decode
// interchangeably. No key rotation: changing the keys invalidates every
// outstanding cookie.
type CookieCodec struct {
	sc *securecookie.SecureCookie
}

// NewCookieCodec builds a codec from server-side hash and block keys.
func NewCookieCodec(hashKey, blockKey []byte) *CookieCodec {
	return &CookieCodec{sc: securecookie.New(hashKey, blockKey)}
}

// Encode produces an opaque, tamper-evident cookie value bound to name.
func (c *CookieCodec) Encode(name, plaintext string) (string, error) {
	return c.sc.Encode(name, plaintext)
}

// Decode reverses Encode. It fails if the value was tampered with or was
// encoded under a different cookie name.
func (c *CookieCodec) Decode(name, opaque string) (string, error) {
	var out string
	if err := c.sc.Decode(name, opaque, &out); err != nil {
		return "", err
	}
	return out, nil
}
