package handlers

import (
	"bytes"
	"errors"
	"html"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"finitefield.org/mitienda-web/internal/binding"
	"finitefield.org/mitienda-web/internal/cart"
	mw "finitefield.org/mitienda-web/internal/middleware"
	"finitefield.org/mitienda-web/internal/nav"
	"finitefield.org/mitienda-web/internal/observability"
	"finitefield.org/mitienda-web/internal/storefront"
)

// fragmentField carries the fragment the page was showing when a control was activated.
const fragmentField = "fragment"

var errInvalidQuantity = errors.New("handlers: qty must be an integer")

type storefrontHandler struct {
	storefront *storefront.Storefront
}

// page renders the storefront for the visitor, routed by ?fragment=.
func (h *storefrontHandler) page(w http.ResponseWriter, r *http.Request) {
	sess, err := h.storefront.Open(r.Context(), mw.VisitorID(r), mw.Lang(r), r.URL.Query().Get(fragmentField))
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "storefront unavailable", err)
		return
	}
	h.render(w, r, sess, http.StatusOK)
}

// control activates one control against a page opened at the posted fragment, then
// redirects to the resulting fragment. htmx requests get the page directly.
func (h *storefrontHandler) control(w http.ResponseWriter, r *http.Request) {
	c, err := binding.ParseControl(chi.URLParam(r, "control"))
	if err != nil {
		h.fail(w, r, http.StatusNotFound, "unknown control", err)
		return
	}
	qty, err := parseQuantity(r.PostFormValue("qty"))
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "invalid quantity", err)
		return
	}

	sess, err := h.storefront.Open(r.Context(), mw.VisitorID(r), mw.Lang(r), r.PostFormValue(fragmentField))
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "storefront unavailable", err)
		return
	}
	ev := binding.Event{Control: c, ProductID: r.PostFormValue("id"), Quantity: qty}
	if err := sess.Dispatch(r.Context(), ev); err != nil {
		switch {
		case errors.Is(err, cart.ErrInvalidProductID), errors.Is(err, cart.ErrInvalidQuantity),
			errors.Is(err, cart.ErrQuantityOverflow):
			h.fail(w, r, http.StatusBadRequest, "invalid control input", err)
		default:
			h.fail(w, r, http.StatusInternalServerError, "control failed", err)
		}
		return
	}

	target := nav.Href(sess.Fragment())
	if mw.IsHTMX(r.Context()) {
		mw.PushURL(w, target)
		h.render(w, r, sess, http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *storefrontHandler) render(w http.ResponseWriter, r *http.Request, sess *storefront.Session, status int) {
	sess.Document.AppendToForms(hiddenInput(mw.CSRFField, mw.CSRFToken(r)) + hiddenInput(fragmentField, sess.Fragment()))
	var buf bytes.Buffer
	if err := sess.Render(&buf); err != nil {
		h.fail(w, r, http.StatusInternalServerError, "render failed", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (h *storefrontHandler) fail(w http.ResponseWriter, r *http.Request, code int, msg string, err error) {
	logger := observability.FromContext(r.Context())
	if code >= http.StatusInternalServerError {
		logger.Error(msg, zap.Error(err))
	} else {
		logger.Debug(msg, zap.Error(err))
	}
	http.Error(w, msg, code)
}

func hiddenInput(name, value string) string {
	return `<input type="hidden" name="` + name + `" value="` + html.EscapeString(value) + `">`
}

// parseQuantity reads the optional qty field. Empty means the control's default.
func parseQuantity(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errInvalidQuantity
	}
	if n < 1 {
		return 0, cart.ErrInvalidQuantity
	}
	return n, nil
}
