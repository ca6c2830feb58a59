package webform

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fumisawa/koescribe/internal/transcribe"
)

type fakeTranscriber struct {
	mu       sync.Mutex
	requests []transcribe.Request
	result   *transcribe.Result
	err      error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, req transcribe.Request) (*transcribe.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.result, f.err
}

func newTestServer(t *testing.T, transcriber transcribe.Transcriber) *Server {
	t.Helper()

	server, err := NewServer(transcriber, nil, 8*1024*1024)
	require.NoError(t, err)
	return server
}

func uploadForm(t *testing.T, fileName, model, language string) (*bytes.Buffer, string) {
	t.Helper()

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte("pcm bytes"))
	require.NoError(t, err)

	require.NoError(t, writer.WriteField("model", model))
	require.NoError(t, writer.WriteField("language", language))
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func TestFormPageRendersModelAndLanguageDropdowns(t *testing.T) {
	t.Parallel()

	handler := newTestServer(t, &fakeTranscriber{}).Handler()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	page := rec.Body.String()
	for _, model := range transcribe.ModelNames() {
		require.Contains(t, page, ">"+model+"<")
	}
	require.Contains(t, page, "Auto-detect")
	require.Contains(t, page, "Japanese")
	require.Contains(t, page, `action="/transcribe"`)
}

func TestTranscribeRendersResult(t *testing.T) {
	t.Parallel()

	fake := &fakeTranscriber{result: &transcribe.Result{
		Text:                  "Hello world",
		FileName:              "lecture.wav",
		ProcessingTimeSeconds: 42,
		Segments:              []transcribe.Segment{{Start: 0, End: 2, Text: "Hello world"}},
	}}
	handler := newTestServer(t, fake).Handler()

	body, contentType := uploadForm(t, "lecture.wav", "small", "en")
	req := httptest.NewRequest(http.MethodPost, "/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	page := rec.Body.String()
	require.Contains(t, page, "Hello world")
	require.Contains(t, page, "0 min 42 sec")
	require.Contains(t, page, "lecture_transcript.txt")

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.requests, 1)
	require.Equal(t, "small", fake.requests[0].ModelSize)
	require.Equal(t, "en", fake.requests[0].Language)
}

func TestTranscribeRejectsNonAudioUpload(t *testing.T) {
	t.Parallel()

	fake := &fakeTranscriber{}
	handler := newTestServer(t, fake).Handler()

	body, contentType := uploadForm(t, "slides.pdf", "base", "auto")
	req := httptest.NewRequest(http.MethodPost, "/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "please choose an audio file")

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Empty(t, fake.requests, "no submission for rejected files")
}

func TestTranscribeRendersFailureDetail(t *testing.T) {
	t.Parallel()

	fake := &fakeTranscriber{err: transcribe.NewFailure(transcribe.FailureServer, "model load failed")}
	handler := newTestServer(t, fake).Handler()

	body, contentType := uploadForm(t, "lecture.wav", "base", "auto")
	req := httptest.NewRequest(http.MethodPost, "/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "model load failed")
}

func TestExportRespondsWithAttachment(t *testing.T) {
	t.Parallel()

	handler := newTestServer(t, &fakeTranscriber{}).Handler()

	form := url.Values{}
	form.Set("text", "the transcript\nwith lines")
	form.Set("fileName", "voice.memo.mp3")

	req := httptest.NewRequest(http.MethodPost, "/export", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Disposition"), "voice.memo_transcript.txt")
	require.Equal(t, "the transcript\nwith lines", rec.Body.String())
}

func TestExportTimestampsNaming(t *testing.T) {
	t.Parallel()

	handler := newTestServer(t, &fakeTranscriber{}).Handler()

	form := url.Values{}
	form.Set("text", "[00:00:00.000 --> 00:00:02.000] hi\n")
	form.Set("fileName", "lecture.wav")
	form.Set("kind", "timestamps")

	req := httptest.NewRequest(http.MethodPost, "/export", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Contains(t, rec.Header().Get("Content-Disposition"), "lecture_transcript_timestamps.txt")
}
