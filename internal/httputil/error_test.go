package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestErrorEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	BadRequest(w, KindSequence, "finish sector 1 first", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, ErrorBody{Status: "error", Type: KindSequence, Error: "finish sector 1 first"}, decodeError(t, w))
}

func TestInternalServerError_PassesMessageThrough(t *testing.T) {
	w := httptest.NewRecorder()
	InternalServerError(w, "failed to start sector", errors.New("database is locked"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, KindUpstream, body.Type)
	assert.Equal(t, "database is locked", body.Error)
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		RaceNo string `json:"race_no"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"race_no":"F00001","extra":1}`))
	require.NoError(t, DecodeJSON(r, &v))
	assert.Equal(t, "F00001", v.RaceNo)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	assert.Error(t, DecodeJSON(r, &v))
}
