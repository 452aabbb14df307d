package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeReportHTML(t *testing.T) {
	report := Report{
		Host:   "checker-01",
		Target: "https://demo.example.com",
		TS:     time.Date(2026, 5, 2, 10, 30, 0, 0, time.UTC),
		Total:  13,
		Passed: 11,
		Failed: []FailedTrial{
			{Description: "Computers - Desktops submenu", Target: "Computers > Desktops", Error: "location mismatch"},
			{Description: "Books main menu", Target: "Books", Error: "top menu not visible"},
		},
		Elapsed: 42 * time.Second,
	}

	html, err := MakeReportHTML(report)
	require.NoError(t, err)
	assert.Contains(t, html, "https://demo.example.com")
	assert.Contains(t, html, "checker-01")
	assert.Contains(t, html, "2026-05-02T10:30:00Z")
	assert.Contains(t, html, "Computers - Desktops submenu")
	assert.Contains(t, html, "location mismatch")
	assert.Contains(t, html, "<li>Trials: <span class=\"bold\">13</span></li>")
	assert.Contains(t, html, "<li>Failed: <span class=\"bold\">2</span></li>")
}

func TestMakeReportHTML_NoFailures(t *testing.T) {
	html, err := MakeReportHTML(Report{Host: "h", Target: "t", TS: time.Now(), Total: 5, Passed: 5})
	require.NoError(t, err)
	assert.Contains(t, html, "<li>Failed: <span class=\"bold\">0</span></li>")
	assert.NotContains(t, html, "location mismatch")
}

func TestService_SendWebhook(t *testing.T) {
	received := make(chan string, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	svc := New([]string{ts.URL}, SMTPParams{}, time.Second)
	err := svc.Send(context.Background(), "run report body")
	require.NoError(t, err)

	select {
	case body := <-received:
		assert.Contains(t, body, "run report body")
	case <-time.After(time.Second):
		t.Fatal("webhook never called")
	}
}

func TestService_SendFailures(t *testing.T) {
	svc := New([]string{"gopher://nope"}, SMTPParams{}, time.Second)
	err := svc.Send(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gopher://nope")

	// no destinations is a no-op
	svc = New(nil, SMTPParams{}, time.Second)
	assert.NoError(t, svc.Send(context.Background(), "text"))
}
