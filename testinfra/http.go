package testinfra

import (
	"net/http"
	"net/http/httptest"
)

func ExecuteRequest(req *http.Request, handler http.Handler) (int, string, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w.Code, w.Body.String(), w
}
