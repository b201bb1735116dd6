package integration

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"playlink/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Error(format string, v ...interface{}) {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Debug(format string, v ...interface{}) {}

func sampleRecord() models.LinkRecord {
	now := time.Now().UTC()
	return models.LinkRecord{
		Code:           "482913",
		GameAccountID:  "PF-1",
		HardwareID:     "HW-1",
		NetworkAddress: "1.2.3.4",
		CallerID:       "U-7",
		State:          models.StateLinked,
		CreatedAt:      now,
		LinkedAt:       &now,
	}
}

func TestWebhookNotifierDelivers(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(body))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, nopLogger{})

	n.LinkChanged("linked", sampleRecord())
	require.Len(t, bodies, 1)
	assert.Contains(t, bodies[0], "Link linked:")
	assert.Contains(t, bodies[0], "code=482913")
	assert.Contains(t, bodies[0], "caller=U-7")

	n.CodeIssued([]models.LinkRecord{sampleRecord()})
	require.Len(t, bodies, 2)
	assert.Contains(t, bodies[1], "Active records: 1")
}

func TestWebhookNotifierSwallowsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, nopLogger{})
	n.LinkChanged("deleted", sampleRecord())

	// An unreachable sink must be just as silent.
	n = NewWebhookNotifier("http://127.0.0.1:0", nopLogger{})
	n.LinkChanged("deleted", sampleRecord())
}

func TestWebhookNotifierSkipsWithoutURL(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	n := NewWebhookNotifier("", nopLogger{})
	n.LinkChanged("linked", sampleRecord())
	assert.False(t, called)
}
