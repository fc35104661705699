package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"codeberg.org/snonux/echovision/internal/audio"
	"codeberg.org/snonux/echovision/internal/caption"
	"codeberg.org/snonux/echovision/internal/cli"
	"codeberg.org/snonux/echovision/internal/processor"
	"codeberg.org/snonux/echovision/internal/storage"
	"codeberg.org/snonux/echovision/internal/testutil"
	"codeberg.org/snonux/echovision/internal/translation"
)

type testEnv struct {
	server    *Server
	captioner *testutil.MockCaptionBackend
	speech    *testutil.MockSpeechProvider
	audioDir  string
}

func newTestEnv(t *testing.T, maxUpload int64) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	uploadDir, audioDir := testutil.CreateScratchDirs(t)
	env := &testEnv{
		captioner: &testutil.MockCaptionBackend{Caption: "A cat sleeping on a sofa."},
		speech:    &testutil.MockSpeechProvider{},
		audioDir:  audioDir,
	}

	p := processor.New(processor.Services{
		Storage:     storage.New(uploadDir, audioDir),
		Captioner:   caption.NewCaptioner(env.captioner, 0),
		Translator:  translation.NewTranslator(&testutil.MockTranslationBackend{}, nil),
		Synthesizer: audio.NewSynthesizer(env.speech, audioDir),
	}, cli.Timeouts{})

	env.server = New(p, Config{DefaultLanguage: "en", MaxUploadBytes: maxUpload})
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func uploadRequest(t *testing.T, filename string, data []byte, lang string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if data != nil {
		part, err := writer.CreateFormFile("image", filename)
		if err != nil {
			t.Fatalf("CreateFormFile() failed: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("Failed to write form file: %v", err)
		}
	}
	if lang != "" {
		if err := writer.WriteField("language", lang); err != nil {
			t.Fatalf("WriteField() failed: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/describe", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, 0)

	w := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("Unexpected body: %s", w.Body.String())
	}
}

func TestLanguages(t *testing.T) {
	env := newTestEnv(t, 0)

	w := env.do(httptest.NewRequest(http.MethodGet, "/api/languages", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}

	var resp struct {
		Default   string `json:"default"`
		Languages []struct {
			Name string `json:"name"`
			Code string `json:"code"`
		} `json:"languages"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if resp.Default != "en" || len(resp.Languages) != 19 {
		t.Errorf("Unexpected languages: %+v", resp)
	}
}

func TestDescribe(t *testing.T) {
	env := newTestEnv(t, 0)

	w := env.do(uploadRequest(t, "cat.png", testutil.PNG(t, 64, 64), "French"))
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d: %s", w.Code, w.Body.String())
	}

	var resp DescribeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}

	if resp.Caption != "A cat sleeping on a sofa." {
		t.Errorf("Caption = %q", resp.Caption)
	}
	if resp.TranslatedCaption != "[fr] A cat sleeping on a sofa." {
		t.Errorf("TranslatedCaption = %q", resp.TranslatedCaption)
	}
	if resp.Language.Code != "fr" || resp.Language.Name != "French" {
		t.Errorf("Language = %+v", resp.Language)
	}
	if resp.Objects == nil || resp.ObjectsText != "none detected" {
		t.Errorf("Objects = %v, ObjectsText = %q", resp.Objects, resp.ObjectsText)
	}
	if resp.AudioURL != "/media/audio/"+resp.RequestID+"_fr.mp3" {
		t.Errorf("AudioURL = %q", resp.AudioURL)
	}

	// The clip and the image are served back
	audio := env.do(httptest.NewRequest(http.MethodGet, resp.AudioURL, nil))
	if audio.Code != http.StatusOK || !bytes.Equal(audio.Body.Bytes(), testutil.MP3Frame) {
		t.Errorf("Audio fetch returned %d with %d bytes", audio.Code, audio.Body.Len())
	}
	img := env.do(httptest.NewRequest(http.MethodGet, resp.ImageURL, nil))
	if img.Code != http.StatusOK {
		t.Errorf("Image fetch returned %d", img.Code)
	}
}

func TestDescribe_DefaultLanguage(t *testing.T) {
	env := newTestEnv(t, 0)

	w := env.do(uploadRequest(t, "cat.jpg", testutil.JPEG(t, 32, 32), ""))
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d: %s", w.Code, w.Body.String())
	}

	var resp DescribeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if resp.Language.Code != "en" {
		t.Errorf("Language = %+v", resp.Language)
	}
}

func TestDescribe_NoAudio(t *testing.T) {
	env := newTestEnv(t, 0)
	env.speech.Err = errors.New("tts offline")

	w := env.do(uploadRequest(t, "cat.png", testutil.PNG(t, 32, 32), "es"))
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d: %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "audio_url") {
		t.Errorf("audio_url must be absent: %s", w.Body.String())
	}
}

type brokenDetector struct{}

func (brokenDetector) Detect(ctx context.Context, imagePath string) ([]string, error) {
	return nil, errors.New("inference server down")
}

func TestDescribe_DegradedStagesOnlyDropFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	uploadDir, audioDir := testutil.CreateScratchDirs(t)

	p := processor.New(processor.Services{
		Storage:     storage.New(uploadDir, audioDir),
		Detector:    brokenDetector{},
		Captioner:   caption.NewCaptioner(&testutil.MockCaptionBackend{Caption: "A cat."}, 0),
		Translator:  translation.NewTranslator(&testutil.MockTranslationBackend{Err: errors.New("quota exceeded")}, nil),
		Synthesizer: audio.NewSynthesizer(&testutil.MockSpeechProvider{Err: errors.New("tts offline")}, audioDir),
	}, cli.Timeouts{})
	srv := New(p, Config{DefaultLanguage: "en"})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, uploadRequest(t, "cat.png", testutil.PNG(t, 32, 32), "de"))
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}

	want := []string{"request_id", "language", "objects", "objects_text", "caption", "translated_caption", "image_url"}
	if len(resp) != len(want) {
		t.Errorf("Unexpected keys in %s", w.Body.String())
	}
	for _, key := range want {
		if _, ok := resp[key]; !ok {
			t.Errorf("Missing key %s", key)
		}
	}
	if resp["translated_caption"] != "A cat." {
		t.Errorf("translated_caption = %v, want untranslated caption", resp["translated_caption"])
	}
	if objects, ok := resp["objects"].([]any); !ok || len(objects) != 0 {
		t.Errorf("objects = %v, want empty list", resp["objects"])
	}
}

func TestDescribe_CaptionFailure(t *testing.T) {
	env := newTestEnv(t, 0)
	env.captioner.Err = errors.New("vision model unavailable")

	w := env.do(uploadRequest(t, "cat.png", testutil.PNG(t, 32, 32), "es"))
	if w.Code != http.StatusBadGateway {
		t.Fatalf("Status = %d, want 502", w.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if resp["stage"] != processor.StageCaption {
		t.Errorf("stage = %v", resp["stage"])
	}
	for _, key := range []string{"caption", "objects", "translated_caption", "audio_url"} {
		if _, ok := resp[key]; ok {
			t.Errorf("Error response must not carry %s", key)
		}
	}
}

func TestDescribe_BadUploads(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		max      int64
		want     int
	}{
		{"missing file", "", nil, 0, http.StatusBadRequest},
		{"empty file", "a.png", []byte{}, 0, http.StatusBadRequest},
		{"gif", "a.gif", []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;"), 0, http.StatusBadRequest},
		{"text", "a.jpg", []byte("not an image at all"), 0, http.StatusBadRequest},
		{"too large", "big.png", bytes.Repeat([]byte{0x89}, 4096), 1024, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.max)

			w := env.do(uploadRequest(t, tt.filename, tt.data, "es"))
			if w.Code != tt.want {
				t.Errorf("Status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
			if env.captioner.Calls != 0 {
				t.Error("Pipeline must not run for a rejected upload")
			}
		})
	}
}

func TestMedia(t *testing.T) {
	env := newTestEnv(t, 0)
	testutil.CreateTestFile(t, env.audioDir+"/known_es.mp3", testutil.MP3Frame)

	tests := []struct {
		path string
		want int
	}{
		{"/media/audio/known_es.mp3", http.StatusOK},
		{"/media/audio/missing.mp3", http.StatusNotFound},
		{"/media/audio/.hidden", http.StatusBadRequest},
		{"/media/uploads/known_es.mp3", http.StatusNotFound},
	}

	for _, tt := range tests {
		w := env.do(httptest.NewRequest(http.MethodGet, tt.path, nil))
		if w.Code != tt.want {
			t.Errorf("GET %s = %d, want %d", tt.path, w.Code, tt.want)
		}
	}
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t, 0)
	env.do(uploadRequest(t, "cat.png", testutil.PNG(t, 16, 16), "de"))

	w := env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "echovision_pipeline_requests_total") {
		t.Error("Pipeline metrics are not exported")
	}
}

func TestRun_Shutdown(t *testing.T) {
	env := newTestEnv(t, 0)
	env.server.config.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.server.Run(ctx) }()

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() returned %v after cancel", err)
	}
}
