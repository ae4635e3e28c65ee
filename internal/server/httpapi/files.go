package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arkadym/sealbox/internal/server/services"
)

// Ciphertext travels as the raw request/response body; the envelope nonce
// and file name ride out-of-band in headers.
const (
	headerNonce    = "X-Nonce"
	headerFileName = "X-File-Name"
	headerChunked  = "X-Chunked"
)

func (s *Server) handleUpload(c *gin.Context) {
	file, err := s.transfers.Upload(c.Request.Context(), currentUserID(c), &services.UploadParams{
		FileName: c.GetHeader(headerFileName),
		Nonce:    c.GetHeader(headerNonce),
		Chunked:  c.GetHeader(headerChunked) == "true",
		Size:     c.Request.ContentLength,
		Body:     c.Request.Body,
	})
	if err != nil {
		s.abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": file.ID, "size": file.Size})
}

func (s *Server) handleDownload(c *gin.Context) {
	download := c.Query("disposition") != "view"

	file, body, err := s.transfers.Fetch(c.Request.Context(), currentUserID(c), c.Param("id"), download)
	if err != nil {
		s.abortWithServiceError(c, err)
		return
	}
	defer body.Close()

	c.Header(headerNonce, file.Nonce)
	c.Header(headerFileName, file.FileName)
	c.Header(headerChunked, strconv.FormatBool(file.Chunked))
	c.DataFromReader(http.StatusOK, file.Size, "application/octet-stream", body, nil)
}

func (s *Server) handleListFiles(c *gin.Context) {
	list, err := s.transfers.ListFiles(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.abortWithServiceError(c, err)
		return
	}

	out := make([]gin.H, 0, len(list))
	for _, f := range list {
		out = append(out, gin.H{
			"id":         f.ID,
			"file_name":  f.FileName,
			"size":       f.Size,
			"chunked":    f.Chunked,
			"created_at": f.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"files": out})
}
