package server

import (
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	drawingdomain "github.com/paddybishop/draw2real-magic-world/internal/drawing/domain"
)

// maxDrawingBytes caps an upload at 8 MiB, comfortably above what a
// canvas snapshot or phone photo of a drawing produces.
const maxDrawingBytes = 8 << 20

type saveDrawingRequest struct {
	Data        string `json:"data"`
	ContentType string `json:"content_type"`
}

type drawingResponse struct {
	ContentType string    `json:"content_type"`
	SizeBytes   int       `json:"size_bytes"`
	CapturedAt  time.Time `json:"captured_at"`
}

// SaveDrawing captures the user's drawing. It accepts either a multipart
// upload with a "drawing" file field or a JSON body with base64 data.
// Saving replaces any previously captured drawing.
func (s *Server) SaveDrawing(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	data, contentType, err := readDrawingPayload(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	drawing := drawingdomain.Drawing{
		UserID:      user.ID,
		Data:        data,
		ContentType: contentType,
		CapturedAt:  time.Now().UTC(),
	}
	if err := s.drawings.Save(c.Request.Context(), drawing); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": drawingResponse{
		ContentType: drawing.ContentType,
		SizeBytes:   len(drawing.Data),
		CapturedAt:  drawing.CapturedAt,
	}})
}

func (s *Server) GetDrawing(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	drawing, err := s.drawings.Load(c.Request.Context(), user.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": drawingResponse{
		ContentType: drawing.ContentType,
		SizeBytes:   len(drawing.Data),
		CapturedAt:  drawing.CapturedAt,
	}})
}

func (s *Server) ClearDrawing(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.drawings.Clear(c.Request.Context(), user.ID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

func readDrawingPayload(c *gin.Context) ([]byte, string, error) {
	contentType := c.ContentType()

	if strings.HasPrefix(contentType, "multipart/form-data") {
		file, header, err := c.Request.FormFile("drawing")
		if err != nil {
			return nil, "", newValidationError("drawing", "missing_file", "drawing file is required")
		}
		defer file.Close()

		if header.Size > maxDrawingBytes {
			return nil, "", newValidationError("drawing", "too_large", "drawing exceeds the upload limit")
		}
		data, err := io.ReadAll(io.LimitReader(file, maxDrawingBytes+1))
		if err != nil {
			return nil, "", invalidRequestError()
		}
		if len(data) > maxDrawingBytes {
			return nil, "", newValidationError("drawing", "too_large", "drawing exceeds the upload limit")
		}

		fileType := header.Header.Get("Content-Type")
		if strings.TrimSpace(fileType) == "" {
			fileType = http.DetectContentType(data)
		}
		return data, fileType, nil
	}

	var req saveDrawingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, "", invalidRequestError()
	}

	// Canvas exports arrive as data URLs; strip the prefix before decoding.
	encoded := strings.TrimSpace(req.Data)
	if idx := strings.Index(encoded, ";base64,"); strings.HasPrefix(encoded, "data:") && idx >= 0 {
		if strings.TrimSpace(req.ContentType) == "" {
			req.ContentType = encoded[len("data:"):idx]
		}
		encoded = encoded[idx+len(";base64,"):]
	}
	if encoded == "" {
		return nil, "", newValidationError("data", "missing_data", "drawing data is required")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", newValidationError("data", "invalid_base64", "drawing data must be base64 encoded")
	}
	if len(data) > maxDrawingBytes {
		return nil, "", newValidationError("data", "too_large", "drawing exceeds the upload limit")
	}

	contentType = strings.TrimSpace(req.ContentType)
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}
