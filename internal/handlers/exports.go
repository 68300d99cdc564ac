package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

func attachment(fileName string) string {
	return fmt.Sprintf(`attachment; filename="%s"`, fileName)
}

func (h HandlerSet) Export(c *gin.Context) {
	rendered, err := h.exports.Render(c.Request.Context(), currentUser(c), c.Param("formId"), c.Query("format"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", attachment(rendered.FileName))
	c.Data(http.StatusOK, rendered.ContentType, rendered.Body)
}

type exportRequest struct {
	Format string `json:"format"`
}

func (h HandlerSet) RequestExport(c *gin.Context) {
	var req exportRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid_payload")
			return
		}
	}

	record, err := h.exports.Request(c.Request.Context(), currentUser(c), c.Param("formId"), req.Format)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, newExportResponse(record, ""))
}

func (h HandlerSet) GetExport(c *gin.Context) {
	view, err := h.exports.Get(c.Request.Context(), currentUser(c), c.Param("formId"), c.Param("exportId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newExportResponse(view.Export, view.DownloadURL))
}

func (h HandlerSet) Download(c *gin.Context) {
	download, err := h.exports.OpenDownload(c.Request.Context(), c.Param("ticket"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer download.Body.Close()

	c.DataFromReader(http.StatusOK, download.Size, download.ContentType, download.Body, map[string]string{
		"Content-Disposition": attachment(download.FileName),
	})
}
