package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-archive-search/internal/archive"
	"github.com/gcbaptista/go-archive-search/services"
)

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Terms     []string `json:"terms" binding:"required"`
	MaxLength *int     `json:"max_length,omitempty"`
	MinScore  *float64 `json:"min_score,omitempty"`
}

// SearchHandler ranks the serving index against an explicit term list.
func (api *API) SearchHandler(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	if result := ValidateSearchRequest(&req); result.HasErrors() {
		SendStructuredValidationError(c, result)
		return
	}

	results, err := api.searcher.Search(c.Request.Context(), services.SearchQuery{
		Terms:     req.Terms,
		MaxLength: api.withDefaultMaxLength(req.MaxLength),
		MinScore:  req.MinScore,
		Source:    services.QuerySourceTerms,
	})
	if err != nil {
		api.sendEngineError(c, "search", err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// SearchByFileHandler ranks the serving index against the entry listing of
// an uploaded zip-format archive (form field "file").
func (api *API) SearchByFileHandler(c *gin.Context) {
	validation := &ValidationResult{Valid: true}
	maxLength, minScore := parseFormLimits(c.PostForm("max_length"), c.PostForm("min_score"), validation)
	if validation.HasErrors() {
		SendStructuredValidationError(c, validation)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidRequest, "Multipart field 'file' is required: "+err.Error())
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		SendInternalError(c, "open upload", err)
		return
	}
	defer file.Close()

	entryNames, err := archive.EntryNames(file, fileHeader.Size)
	if err != nil {
		SendInvalidArchiveError(c, "Uploaded file is not a readable zip archive")
		return
	}

	results, err := api.searcher.SearchByEntries(c.Request.Context(), entryNames, api.withDefaultMaxLength(maxLength), minScore)
	if err != nil {
		api.sendEngineError(c, "search_by_file", err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (api *API) withDefaultMaxLength(maxLength *int) *int {
	if maxLength != nil || api.opts.DefaultMaxLength <= 0 {
		return maxLength
	}
	n := api.opts.DefaultMaxLength
	return &n
}
