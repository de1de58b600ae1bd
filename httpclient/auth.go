package httpclient

import "net/http"

// AuthConfig places a credential on outgoing requests, either as an
// Authorization scheme or as a named header or query parameter.
type AuthConfig struct {
	Scheme string
	Token  string
	// Query, when set, sends Token as this query parameter instead.
	Query string
	// Header, when set, sends Token verbatim in this header.
	Header string
}

// BearerAuth sends "Authorization: Bearer <token>".
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Scheme: "Bearer", Token: token}
}

// SchemeAuth sends "Authorization: <scheme> <token>", e.g. fal's "Key".
func SchemeAuth(scheme, token string) *AuthConfig {
	return &AuthConfig{Scheme: scheme, Token: token}
}

// QueryAuth sends the token as a query parameter, e.g. Gemini's "key".
func QueryAuth(param, token string) *AuthConfig {
	return &AuthConfig{Query: param, Token: token}
}

// HeaderAuth sends the token in a named header.
func HeaderAuth(header, token string) *AuthConfig {
	return &AuthConfig{Header: header, Token: token}
}

func (a *AuthConfig) apply(req *http.Request) {
	if a == nil || a.Token == "" {
		return
	}
	switch {
	case a.Query != "":
		q := req.URL.Query()
		q.Set(a.Query, a.Token)
		req.URL.RawQuery = q.Encode()
	case a.Header != "":
		req.Header.Set(a.Header, a.Token)
	default:
		req.Header.Set("Authorization", a.Scheme+" "+a.Token)
	}
}
