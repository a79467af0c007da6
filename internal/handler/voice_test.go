package handlers

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/code-100-precent/LingVoice/pkg/config"
	"github.com/code-100-precent/LingVoice/pkg/embedding"
	"github.com/code-100-precent/LingVoice/pkg/enrollment"
	"github.com/code-100-precent/LingVoice/pkg/features"
	"github.com/code-100-precent/LingVoice/pkg/voiceauth"
	"github.com/code-100-precent/LingVoice/pkg/voiceclone"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubProvider embeds deterministically so the same upload always
// produces the same vector.
type stubProvider struct {
	dim int
}

func (p *stubProvider) Embed(_ context.Context, tensor *features.Tensor) (embedding.Vector, error) {
	vec := make(embedding.Vector, p.dim)
	for t, row := range tensor.Data {
		for f, v := range row {
			vec[(t*31+f)%p.dim] += v
		}
	}
	return vec, nil
}

func (p *stubProvider) Dimension() int { return p.dim }

func (p *stubProvider) Healthy(context.Context) error { return nil }

// stubCloneService answers every clone request with fixed audio.
type stubCloneService struct {
	lastSpeaker string
	err         error
}

func (s *stubCloneService) Clone(_ context.Context, req *voiceclone.CloneRequest) (*voiceclone.CloneResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lastSpeaker = req.Speaker
	return &voiceclone.CloneResult{
		Speaker:    req.Speaker,
		Answer:     "stub answer",
		AudioData:  []byte("stub audio"),
		Format:     "wav",
		SampleRate: 16000,
	}, nil
}

func (s *stubCloneService) Ready(context.Context) error { return nil }

// wavBytes builds a minimal mono 16-bit PCM WAV file at 16kHz
func wavBytes(freq float64, seconds float64) []byte {
	rate := 16000
	n := int(seconds * float64(rate))
	dataLen := n * 2

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(rate))
	binary.Write(&buf, binary.LittleEndian, uint32(rate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	for i := 0; i < n; i++ {
		v := int16(0.5 * 32767 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
		binary.Write(&buf, binary.LittleEndian, v)
	}
	return buf.Bytes()
}

func multipartAudio(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	fw, err := w.CreateFormFile("audio_file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

type testApp struct {
	router *gin.Engine
	engine *voiceauth.Engine
	clone  *stubCloneService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	originalConfig := config.GlobalConfig
	t.Cleanup(func() { config.GlobalConfig = originalConfig })
	config.GlobalConfig = &config.Config{
		Server: config.ServerConfig{APIPrefix: "/api"},
	}

	store, err := enrollment.NewFileStore(t.TempDir(), 64)
	require.NoError(t, err)

	engine, err := voiceauth.NewEngine(&stubProvider{dim: 64}, store, nil, nil, nil)
	require.NoError(t, err)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	clone := &stubCloneService{}
	h := NewHandlers(db, engine, clone, 32)

	router := gin.New()
	h.Register(router)

	return &testApp{router: router, engine: engine, clone: clone}
}

func (app *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	return w
}

func (app *testApp) enroll(t *testing.T, name string, audio []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartAudio(t, map[string]string{"name": name}, "voice.wav", audio)
	req := httptest.NewRequest(http.MethodPost, "/api/voice/enroll", body)
	req.Header.Set("Content-Type", contentType)
	return app.do(req)
}

func (app *testApp) authenticate(t *testing.T, audio []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartAudio(t, nil, "probe.wav", audio)
	req := httptest.NewRequest(http.MethodPost, "/api/voice/authenticate", body)
	req.Header.Set("Content-Type", contentType)
	return app.do(req)
}

func parseData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp struct {
		Code int                    `json:"code"`
		Msg  string                 `json:"msg"`
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp.Data
}

func TestEnroll(t *testing.T) {
	app := newTestApp(t)

	w := app.enroll(t, "alice", wavBytes(440, 1))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := parseData(t, w)
	assert.Equal(t, "alice", data["name"])
	assert.Equal(t, "wav", data["original_format"])
}

func TestEnroll_MissingName(t *testing.T) {
	app := newTestApp(t)

	body, contentType := multipartAudio(t, nil, "voice.wav", wavBytes(440, 1))
	req := httptest.NewRequest(http.MethodPost, "/api/voice/enroll", body)
	req.Header.Set("Content-Type", contentType)

	w := app.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnroll_InvalidName(t *testing.T) {
	app := newTestApp(t)

	w := app.enroll(t, "bad name!", wavBytes(440, 1))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnroll_UnsupportedFormat(t *testing.T) {
	app := newTestApp(t)

	body, contentType := multipartAudio(t, map[string]string{"name": "alice"}, "video.mp4", []byte("data"))
	req := httptest.NewRequest(http.MethodPost, "/api/voice/enroll", body)
	req.Header.Set("Content-Type", contentType)

	w := app.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Unsupported audio format")
}

func TestEnroll_CorruptAudio(t *testing.T) {
	app := newTestApp(t)

	w := app.enroll(t, "alice", []byte("definitely not a wav"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "DECODE_FAILURE")
}

func TestAuthenticate_NoEnrollments(t *testing.T) {
	app := newTestApp(t)

	w := app.authenticate(t, wavBytes(440, 1))
	require.Equal(t, http.StatusOK, w.Code)

	data := parseData(t, w)
	assert.Equal(t, false, data["authenticated"])
	assert.Contains(t, data["message"], "No users enrolled")
}

func TestAuthenticate_SameAudioAccepted(t *testing.T) {
	app := newTestApp(t)

	w := app.enroll(t, "alice", wavBytes(440, 1))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = app.authenticate(t, wavBytes(440, 1))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := parseData(t, w)
	assert.Equal(t, true, data["authenticated"])
	assert.Equal(t, "alice", data["recognized_user"])
	assert.NotEmpty(t, data["token"])
	assert.Contains(t, data["message"], "Voice verified as alice")
}

func TestAuthenticate_DifferentAudioRejected(t *testing.T) {
	app := newTestApp(t)

	w := app.enroll(t, "alice", wavBytes(440, 1))
	require.Equal(t, http.StatusOK, w.Code)

	w = app.authenticate(t, wavBytes(1000, 1))
	require.Equal(t, http.StatusOK, w.Code)

	data := parseData(t, w)
	assert.Equal(t, false, data["authenticated"])
	assert.Empty(t, data["token"])
	assert.Equal(t, "alice", data["closest_match"])
}

func TestListUsers(t *testing.T) {
	app := newTestApp(t)

	// Empty list first
	req := httptest.NewRequest(http.MethodGet, "/api/voice/users", nil)
	w := app.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	data := parseData(t, w)
	assert.Equal(t, float64(0), data["count"])

	require.Equal(t, http.StatusOK, app.enroll(t, "alice", wavBytes(440, 1)).Code)
	require.Equal(t, http.StatusOK, app.enroll(t, "bob", wavBytes(660, 1)).Code)

	w = app.do(httptest.NewRequest(http.MethodGet, "/api/voice/users", nil))
	require.Equal(t, http.StatusOK, w.Code)
	data = parseData(t, w)
	assert.Equal(t, float64(2), data["count"])
	assert.ElementsMatch(t, []interface{}{"alice", "bob"}, data["enrolled_users"])
}

func TestDeleteUser(t *testing.T) {
	app := newTestApp(t)

	require.Equal(t, http.StatusOK, app.enroll(t, "alice", wavBytes(440, 1)).Code)

	w := app.do(httptest.NewRequest(http.MethodDelete, "/api/voice/users/alice", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// Second delete reports not found
	w = app.do(httptest.NewRequest(http.MethodDelete, "/api/voice/users/alice", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCloneVoice_RequiresToken(t *testing.T) {
	app := newTestApp(t)

	body := bytes.NewBufferString(`{"question":"hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/voice/clone-voice", body)
	req.Header.Set("Content-Type", "application/json")

	w := app.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_INVALID")
}

func TestCloneVoice_InvalidToken(t *testing.T) {
	app := newTestApp(t)

	body := bytes.NewBufferString(`{"question":"hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/voice/clone-voice", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer garbage-token")

	w := app.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCloneVoice_WithValidToken(t *testing.T) {
	app := newTestApp(t)

	require.Equal(t, http.StatusOK, app.enroll(t, "alice", wavBytes(440, 1)).Code)

	w := app.authenticate(t, wavBytes(440, 1))
	require.Equal(t, http.StatusOK, w.Code)
	token, _ := parseData(t, w)["token"].(string)
	require.NotEmpty(t, token)

	body := bytes.NewBufferString(`{"question":"how are you"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/voice/clone-voice", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	w = app.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := parseData(t, w)
	assert.Equal(t, "alice", data["speaker"])
	assert.Equal(t, "stub answer", data["answer"])
	assert.Equal(t, "alice", app.clone.lastSpeaker)
}

func TestCloneVoice_MissingQuestion(t *testing.T) {
	app := newTestApp(t)

	require.Equal(t, http.StatusOK, app.enroll(t, "alice", wavBytes(440, 1)).Code)
	token, err := app.engine.Tokens().Issue("alice")
	require.NoError(t, err)

	body := bytes.NewBufferString(`{}`)
	req := httptest.NewRequest(http.MethodPost, "/api/voice/clone-voice", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	w := app.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCloneVoice_DownstreamFailure(t *testing.T) {
	app := newTestApp(t)
	app.clone.err = fmt.Errorf("synthesis service down")

	require.Equal(t, http.StatusOK, app.enroll(t, "alice", wavBytes(440, 1)).Code)
	token, err := app.engine.Tokens().Issue("alice")
	require.NoError(t, err)

	body := bytes.NewBufferString(`{"question":"hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/voice/clone-voice", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	w := app.do(req)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHealthCheck(t *testing.T) {
	app := newTestApp(t)

	w := app.do(httptest.NewRequest(http.MethodGet, "/api/system/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "ok", body["model"])
}

func TestSystemStatus(t *testing.T) {
	app := newTestApp(t)

	require.Equal(t, http.StatusOK, app.enroll(t, "alice", wavBytes(440, 1)).Code)

	w := app.do(httptest.NewRequest(http.MethodGet, "/api/system/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	data := parseData(t, w)
	assert.Equal(t, float64(1), data["enrolled_users"])
	assert.Equal(t, true, data["clone_enabled"])
}

func TestMiddlewareStats(t *testing.T) {
	app := newTestApp(t)

	w := app.do(httptest.NewRequest(http.MethodGet, "/api/system/middleware", nil))
	require.Equal(t, http.StatusOK, w.Code)

	data := parseData(t, w)
	rl, ok := data["rate_limiter"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, rl, "allowed_total")
	assert.Contains(t, data, "circuit_breakers")
}

func TestCloneVoice_StaleTokenAfterDelete(t *testing.T) {
	app := newTestApp(t)

	require.Equal(t, http.StatusOK, app.enroll(t, "alice", wavBytes(440, 1)).Code)

	w := app.authenticate(t, wavBytes(440, 1))
	require.Equal(t, http.StatusOK, w.Code)
	token, _ := parseData(t, w)["token"].(string)
	require.NotEmpty(t, token)

	w = app.do(httptest.NewRequest(http.MethodDelete, "/api/voice/users/alice", nil))
	require.Equal(t, http.StatusOK, w.Code)

	// 注册已删除，令牌本身仍有效，克隆必须拒绝
	body := bytes.NewBufferString(`{"question":"hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/voice/clone-voice", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	w = app.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "USER_NOT_FOUND")
	assert.Empty(t, app.clone.lastSpeaker)
}
