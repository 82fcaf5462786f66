package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"finitefield.org/mitienda-web/internal/i18n"
)

func TestSessionIssuesVisitorAndVerifiesSignature(t *testing.T) {
	s := NewSessions(SessionOptions{SigningKey: "k1"})
	var seen string
	h := s.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = VisitorID(r)
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(seen) != 26 {
		t.Fatalf("expected a ULID visitor id, got %q", seen)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != sessionCookieName {
		t.Fatalf("expected session cookie, got %v", cookies)
	}
	first := seen

	// same key: visitor survives
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != first {
		t.Fatalf("expected visitor %q to persist, got %q", first, seen)
	}

	// other key: cookie rejected, new visitor
	other := NewSessions(SessionOptions{SigningKey: "k2"}).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = VisitorID(r)
	}))
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	other.ServeHTTP(httptest.NewRecorder(), req)
	if seen == first {
		t.Fatalf("cookie signed with another key must not be trusted")
	}
}

func TestCSRFAcceptsFormFieldAndHeader(t *testing.T) {
	s := NewSessions(SessionOptions{SigningKey: "k"})
	var token string
	h := s.Middleware(s.CSRF(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = CSRFToken(r)
		w.WriteHeader(http.StatusOK)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := rec.Result().Cookies()
	if token == "" || len(cookies) != 2 {
		t.Fatalf("expected token and two cookies, got %q %v", token, cookies)
	}

	post := func(body string, header string) int {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if header != "" {
			req.Header.Set(CSRFHeader, header)
		}
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := post(url.Values{CSRFField: {token}}.Encode(), ""); code != http.StatusOK {
		t.Fatalf("form field token: expected 200, got %d", code)
	}
	if code := post("", token); code != http.StatusOK {
		t.Fatalf("header token: expected 200, got %d", code)
	}
	if code := post(url.Values{CSRFField: {"nope"}}.Encode(), ""); code != http.StatusForbidden {
		t.Fatalf("wrong token: expected 403, got %d", code)
	}
	if code := post("", ""); code != http.StatusForbidden {
		t.Fatalf("missing token: expected 403, got %d", code)
	}
}

func TestLocalePrefersQueryThenCookieThenHeader(t *testing.T) {
	bundle := i18n.Default()
	s := NewSessions(SessionOptions{SigningKey: "k"})
	var lang string
	h := s.Middleware(Locale(bundle)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang = Lang(r)
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if lang != "en" {
		t.Fatalf("expected en from Accept-Language, got %q", lang)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en")
	req.AddCookie(&http.Cookie{Name: langCookieName, Value: "es"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	if lang != "es" {
		t.Fatalf("expected cookie to win over header, got %q", lang)
	}

	req = httptest.NewRequest(http.MethodGet, "/?hl=en", nil)
	req.AddCookie(&http.Cookie{Name: langCookieName, Value: "es"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	if lang != "en" {
		t.Fatalf("expected query to win, got %q", lang)
	}

	req = httptest.NewRequest(http.MethodGet, "/?hl=fr", nil)
	req.Header.Set("Accept-Language", "fr")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if lang != "es" {
		t.Fatalf("unsupported languages fall back to es, got %q", lang)
	}
}

func TestHTMXFlag(t *testing.T) {
	var is bool
	h := HTMX(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { is = IsHTMX(r.Context()) }))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("HX-Request", "true")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if !is {
		t.Fatalf("expected htmx request to be flagged")
	}
}
