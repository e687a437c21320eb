package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	printingapp "github.com/printapi/backend/internal/application/printing"
	domain "github.com/printapi/backend/internal/domain/printing"
	"github.com/printapi/backend/internal/interfaces/http/dto"
	"github.com/printapi/backend/internal/interfaces/http/middleware"
)

// DownloadName is the attachment filename of every PDF response.
const DownloadName = "transform.pdf"

// Response headers describing a delivered PDF
const (
	CacheHeader      = "X-Cache"
	PrintCountHeader = "X-Print-Count"
)

// PrintService is the application service behind PrintHandler.
type PrintService interface {
	Print(ctx context.Context, cmd printingapp.PrintCommand) (*printingapp.PrintResult, error)
	Options() []printingapp.OptionDescriptor
}

// PrintHandler handles print-related API endpoints
type PrintHandler struct {
	BaseHandler
	printService PrintService
}

// NewPrintHandler creates a new PrintHandler
func NewPrintHandler(printService PrintService, debug bool) *PrintHandler {
	return &PrintHandler{
		BaseHandler:  BaseHandler{Debug: debug},
		printService: printService,
	}
}

// PrintRequest is the print body. Form clients send options as
// options[name]=value; JSON clients send an object.
type PrintRequest struct {
	URL     string         `json:"url" form:"url" binding:"omitempty,max=2048"`
	Content string         `json:"content" form:"content"`
	Options map[string]any `json:"options" form:"-"`
}

// Print renders the submitted URL or HTML and returns the PDF.
func (h *PrintHandler) Print(c *gin.Context) {
	cmd, ok := h.bindCommand(c)
	if !ok {
		return
	}
	cmd.UserID = middleware.GetAPIUserID(c)

	result, err := h.printService.Print(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	cache := "MISS"
	if result.CacheHit {
		cache = "HIT"
	}
	c.Header(CacheHeader, cache)
	c.Header(PrintCountHeader, strconv.FormatInt(result.Record.Count, 10))
	sendPDF(c, result.ArtifactPath)
}

func (h *PrintHandler) bindCommand(c *gin.Context) (printingapp.PrintCommand, bool) {
	var req PrintRequest
	var cmd printingapp.PrintCommand

	if c.ContentType() == binding.MIMEJSON {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			h.bindError(c, err)
			return cmd, false
		}
		cmd.RawOptions = req.Options
	} else {
		if err := c.ShouldBind(&req); err != nil {
			h.bindError(c, err)
			return cmd, false
		}
		if form := c.PostFormMap("options"); len(form) > 0 {
			cmd.Options = domain.RenderOptions(form)
		}
	}

	cmd.URL = req.URL
	cmd.Content = req.Content
	return cmd, true
}

func (h *PrintHandler) bindError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.ValidationError(c, middleware.ValidationDetails(err))
		return
	}
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
		return
	}
	if c.ContentType() == binding.MIMEJSON {
		h.BadRequest(c, dto.ErrCodeInvalidJSON, "Invalid JSON body")
		return
	}
	h.BadRequest(c, dto.ErrCodeBadRequest, "Invalid request body")
}

// sendPDF streams the artifact as an attachment. A renderer that exited 0
// without writing a file still yields a 200, with an empty body.
func sendPDF(c *gin.Context, path string) {
	if _, err := os.Stat(path); err != nil {
		c.Header("Content-Disposition", `attachment; filename="`+DownloadName+`"`)
		c.Data(http.StatusOK, "application/pdf", nil)
		return
	}
	c.Header("Content-Type", "application/pdf")
	c.FileAttachment(path, DownloadName)
}

// Options lists the accepted render options with their defaults.
func (h *PrintHandler) Options(c *gin.Context) {
	h.Success(c, h.printService.Options())
}
