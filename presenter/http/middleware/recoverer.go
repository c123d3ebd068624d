package middleware

import (
	"net/http"

	"github.com/poanetwork/escrow-monitor/logging"
	"github.com/poanetwork/escrow-monitor/presenter/http/render"
)

func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler { //nolint:errorlint
				panic(rec)
			}
			logger := logging.LoggerFromContext(r.Context())
			if err, ok := rec.(error); ok {
				logger = logger.WithError(err)
			} else {
				logger = logger.WithField("recovered", rec)
			}
			logger.Error("recovered panic in the http handler")
			render.Message(w, r, http.StatusInternalServerError, "internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}
