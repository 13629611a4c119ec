// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package httpclient

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"

	"golang.org/x/net/publicsuffix"
)

// NewJar returns the default credential holder: an in-memory cookie jar that
// scopes cookies with the public suffix list, the way a browser does.
func NewJar() (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("httpclient: create cookie jar: %w", err)
	}
	return jar, nil
}
