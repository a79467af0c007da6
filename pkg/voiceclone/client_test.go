package voiceclone

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTextGenServer(t *testing.T, answer string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/generate", r.URL.Path)

		var req struct {
			Question string `json:"question"`
			Speaker  string `json:"speaker"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.Question)

		json.NewEncoder(w).Encode(map[string]string{"answer": answer})
	}))
}

func newSynthesisServer(t *testing.T, audio []byte) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/synthesize":
			var req struct {
				Speaker string `json:"speaker"`
				Text    string `json:"text"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.NotEmpty(t, req.Speaker)
			assert.NotEmpty(t, req.Text)
			w.Write(audio)
		case "/health":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestConfig_Validate(t *testing.T) {
	// Disabled config skips validation
	cfg := &Config{Enabled: false}
	assert.NoError(t, cfg.Validate())

	cfg = &Config{Enabled: true, SynthesisURL: "", TextGenURL: "http://x", Timeout: time.Second}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Enabled: true, SynthesisURL: "http://x", TextGenURL: "", Timeout: time.Second}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Enabled: true, SynthesisURL: "http://x", TextGenURL: "http://y", Timeout: 0}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Enabled: true, SynthesisURL: "http://x", TextGenURL: "http://y", Timeout: time.Second}
	assert.NoError(t, cfg.Validate())
}

func TestHTTPService_Clone(t *testing.T) {
	audio := []byte("RIFF-fake-wav-data")
	textGen := newTextGenServer(t, "The weather is fine today.")
	defer textGen.Close()
	synth := newSynthesisServer(t, audio)
	defer synth.Close()

	svc, err := NewHTTPService(&Config{
		Enabled:      true,
		SynthesisURL: synth.URL,
		TextGenURL:   textGen.URL,
		Timeout:      5 * time.Second,
	})
	require.NoError(t, err)
	defer svc.Close()

	result, err := svc.Clone(context.Background(), &CloneRequest{
		Speaker:  "alice",
		Question: "How is the weather?",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", result.Speaker)
	assert.Equal(t, "The weather is fine today.", result.Answer)
	assert.Equal(t, audio, result.AudioData)
	assert.Equal(t, "wav", result.Format)
	assert.Equal(t, 16000, result.SampleRate)
}

func TestHTTPService_Clone_Disabled(t *testing.T) {
	svc, err := NewHTTPService(DefaultConfig())
	require.NoError(t, err)

	_, err = svc.Clone(context.Background(), &CloneRequest{Speaker: "alice", Question: "hi"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}

func TestHTTPService_Clone_MissingFields(t *testing.T) {
	svc, err := NewHTTPService(&Config{
		Enabled:      true,
		SynthesisURL: "http://localhost:1",
		TextGenURL:   "http://localhost:1",
		Timeout:      time.Second,
	})
	require.NoError(t, err)

	_, err = svc.Clone(context.Background(), nil)
	assert.Error(t, err)

	_, err = svc.Clone(context.Background(), &CloneRequest{Speaker: "", Question: "hi"})
	assert.Error(t, err)

	_, err = svc.Clone(context.Background(), &CloneRequest{Speaker: "alice", Question: ""})
	assert.Error(t, err)
}

func TestHTTPService_Clone_TextGenFailure(t *testing.T) {
	textGen := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusInternalServerError)
	}))
	defer textGen.Close()
	synth := newSynthesisServer(t, []byte("audio"))
	defer synth.Close()

	svc, err := NewHTTPService(&Config{
		Enabled:      true,
		SynthesisURL: synth.URL,
		TextGenURL:   textGen.URL,
		Timeout:      5 * time.Second,
	})
	require.NoError(t, err)

	_, err = svc.Clone(context.Background(), &CloneRequest{Speaker: "alice", Question: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "textgen HTTP 500")
}

func TestHTTPService_Clone_EmptyAnswer(t *testing.T) {
	textGen := newTextGenServer(t, "")
	defer textGen.Close()

	svc, err := NewHTTPService(&Config{
		Enabled:      true,
		SynthesisURL: "http://localhost:1",
		TextGenURL:   textGen.URL,
		Timeout:      5 * time.Second,
	})
	require.NoError(t, err)

	_, err = svc.Clone(context.Background(), &CloneRequest{Speaker: "alice", Question: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty answer")
}

func TestHTTPService_Clone_SynthesisFailure(t *testing.T) {
	textGen := newTextGenServer(t, "answer")
	defer textGen.Close()
	synth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such speaker", http.StatusBadRequest)
	}))
	defer synth.Close()

	svc, err := NewHTTPService(&Config{
		Enabled:      true,
		SynthesisURL: synth.URL,
		TextGenURL:   textGen.URL,
		Timeout:      5 * time.Second,
	})
	require.NoError(t, err)

	_, err = svc.Clone(context.Background(), &CloneRequest{Speaker: "alice", Question: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "synthesis HTTP 400")
}

func TestHTTPService_Ready(t *testing.T) {
	synth := newSynthesisServer(t, nil)
	defer synth.Close()

	svc, err := NewHTTPService(&Config{
		Enabled:      true,
		SynthesisURL: synth.URL,
		TextGenURL:   "http://localhost:1",
		Timeout:      5 * time.Second,
	})
	require.NoError(t, err)

	assert.NoError(t, svc.Ready(context.Background()))
}

func TestHTTPService_Ready_Disabled(t *testing.T) {
	svc, err := NewHTTPService(DefaultConfig())
	require.NoError(t, err)

	assert.Error(t, svc.Ready(context.Background()))
}
