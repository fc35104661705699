package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"codeberg.org/snonux/echovision/internal"
	"codeberg.org/snonux/echovision/internal/image"
	"codeberg.org/snonux/echovision/internal/language"
	"codeberg.org/snonux/echovision/internal/processor"
	"codeberg.org/snonux/echovision/internal/storage"
)

// DescribeResponse is the JSON answer to a successful upload. Degraded
// stages only show up as missing or untranslated fields, details stay in
// the logs and metrics.
type DescribeResponse struct {
	RequestID         string            `json:"request_id"`
	Language          language.Language `json:"language"`
	Objects           []string          `json:"objects"`
	ObjectsText       string            `json:"objects_text"`
	Caption           string            `json:"caption"`
	TranslatedCaption string            `json:"translated_caption"`
	ImageURL          string            `json:"image_url"`
	AudioURL          string            `json:"audio_url,omitempty"`
}

// ErrorResponse is returned whenever no bundle could be produced
type ErrorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": internal.Version,
	})
}

func (s *Server) languages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"default":   language.DefaultCode,
		"languages": language.All(),
	})
}

func (s *Server) describe(c *gin.Context) {
	if s.config.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxUploadBytes)
	}

	data, format, err := s.readUpload(c)
	if err != nil {
		if isTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
				Error: fmt.Sprintf("image exceeds %d bytes", s.config.MaxUploadBytes),
			})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	lang := c.PostForm("language")
	if strings.TrimSpace(lang) == "" {
		lang = s.config.DefaultLanguage
	}

	bundle, err := s.pipeline.Process(c.Request.Context(), processor.Request{
		Image:    data,
		Format:   format,
		Language: lang,
	})
	if err != nil {
		resp := ErrorResponse{Error: err.Error()}
		status := http.StatusInternalServerError

		var stageErr *processor.StageError
		if errors.As(err, &stageErr) {
			resp.Stage = stageErr.Stage
			if stageErr.Stage == processor.StageCaption {
				status = http.StatusBadGateway
			}
		}
		c.JSON(status, resp)
		return
	}

	c.JSON(http.StatusOK, newDescribeResponse(bundle))
}

// readUpload returns the image bytes and their sniffed format
func (s *Server) readUpload(c *gin.Context) ([]byte, string, error) {
	header, err := c.FormFile("image")
	if err != nil {
		return nil, "", fmt.Errorf("missing image upload: %w", err)
	}

	file, err := header.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("image is empty")
	}

	format := image.DetectFormat(data)
	if format == "" {
		return nil, "", fmt.Errorf("unsupported image type %s, use jpg or png", filepath.Ext(header.Filename))
	}

	return data, format, nil
}

// isTooLarge reports whether err came from the body size limit. The
// multipart reader does not always keep the typed error.
func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

func (s *Server) serveFile(kind storage.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		path, err := s.pipeline.Storage().Path(kind, c.Param("name"))
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}

		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
			return
		}

		log.WithField("file", filepath.Base(path)).Debug("serving scratch file")
		c.File(path)
	}
}

func newDescribeResponse(b *processor.Bundle) DescribeResponse {
	resp := DescribeResponse{
		RequestID:         b.RequestID,
		Language:          b.Language,
		Objects:           b.Objects,
		ObjectsText:       b.ObjectsText(),
		Caption:           b.Caption,
		TranslatedCaption: b.Translated,
		ImageURL:          "/media/uploads/" + filepath.Base(b.ImagePath),
	}
	if resp.Objects == nil {
		resp.Objects = []string{}
	}
	if b.HasAudio() {
		resp.AudioURL = "/media/audio/" + filepath.Base(b.AudioPath)
	}
	return resp
}
