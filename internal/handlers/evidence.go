package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hipaa-compliance/internal/catalog"
	"hipaa-compliance/internal/service"
)

// multipartOverhead is the slack allowed on top of the file size for the
// rest of the multipart body.
const multipartOverhead = 1 << 20

func (h *Handler) EvidenceRecords(c *gin.Context) {
	recs, err := h.svc.EvidenceRecords(c.Request.Context(), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": recs})
}

func (h *Handler) EvidenceRequirements(c *gin.Context) {
	reqs, err := h.svc.EvidenceRequirements(c.Request.Context(), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requirements": reqs})
}

func (h *Handler) UploadEvidence(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds the upload limit"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "a file field is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer f.Close()

	rec, err := h.svc.UploadEvidence(c.Request.Context(), actor(c), c.Param("question_id"), service.FileUpload{
		Filename:    fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
		Kind:        catalog.EvidenceType(c.PostForm("kind")),
		Note:        c.PostForm("note"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) AddEvidenceItem(c *gin.Context) {
	var in service.ItemInput
	if !h.bind(c, &in) {
		return
	}
	rec, err := h.svc.AddEvidenceItem(c.Request.Context(), actor(c), c.Param("question_id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) RemoveEvidenceItem(c *gin.Context) {
	rec, err := h.svc.RemoveEvidenceItem(c.Request.Context(), actor(c), c.Param("question_id"), c.Param("item_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
