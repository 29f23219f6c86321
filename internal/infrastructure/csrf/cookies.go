package csrf

import (
	"net/http"
	"net/url"
)

// JarCookies reads cookies a jar would send to one origin.
type JarCookies struct {
	jar http.CookieJar
	url *url.URL
}

// NewJarCookies scopes jar to the cookies visible at rawURL.
func NewJarCookies(jar http.CookieJar, rawURL string) (*JarCookies, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	return &JarCookies{jar: jar, url: u}, nil
}

// Cookie returns the named cookie's value.
func (c *JarCookies) Cookie(name string) (string, bool) {
	if c == nil || c.jar == nil {
		return "", false
	}
	for _, ck := range c.jar.Cookies(c.url) {
		if ck.Name == name && ck.Value != "" {
			return ck.Value, true
		}
	}
	return "", false
}
