package api

import (
	"mime/multipart" // Uploaded file headers
	"net/http"       // HTTP status codes
	"strconv"        // Price parsing

	"assetmarket/internal/catalog" // Catalog query engine
	"assetmarket/internal/domain"  // Importing domain models
	"assetmarket/internal/storage" // Upload storage

	"github.com/gin-gonic/gin" // Gin web framework
)

// Uploader persists uploaded files and returns their public location
type Uploader interface {
	Save(fh *multipart.FileHeader) (string, error)
}

// ReviewRequest represents a rating submission
type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"` // 1 to 5
	Comment string `json:"comment"`                   // Optional comment
}

// ListAssetsHandler returns one page of approved assets
func ListAssetsHandler(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		params := catalog.ParseListParams(
			c.Query("page"),
			c.Query("limit"),
			c.Query("category"),
			c.Query("search"),
			c.Query("free"),
			c.Query("sort"),
		)
		page, err := svc.List(c.Request.Context(), params)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// FeaturedAssetsHandler returns the homepage promotions
func FeaturedAssetsHandler(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.Featured(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// GetAssetHandler returns a single asset whatever its approval state
func GetAssetHandler(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id", domain.ErrAssetNotFound)
		if !ok {
			return
		}
		detail, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

// CreateAssetHandler stores the uploaded files and creates a pending asset
func CreateAssetHandler(svc *catalog.Service, files Uploader) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := actor(c)
		if !ok {
			return
		}
		in, err := assetInputFromForm(c, files, true)
		if err != nil {
			respondError(c, err)
			return
		}
		asset, err := svc.Create(c.Request.Context(), caller, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, asset)
	}
}

// UpdateAssetHandler applies a partial update from the owner or an admin
func UpdateAssetHandler(svc *catalog.Service, files Uploader) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := actor(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id", domain.ErrAssetNotFound)
		if !ok {
			return
		}
		in, err := assetInputFromForm(c, files, false)
		if err != nil {
			respondError(c, err)
			return
		}
		asset, err := svc.Update(c.Request.Context(), caller, id, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, asset)
	}
}

// DeleteAssetHandler removes an asset on behalf of its owner or an admin
func DeleteAssetHandler(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := actor(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id", domain.ErrAssetNotFound)
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), caller, id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Asset removed"})
	}
}

// DownloadHandler counts a download and returns the file location
func DownloadHandler(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id", domain.ErrAssetNotFound)
		if !ok {
			return
		}
		url, err := svc.Download(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
	}
}

// AddReviewHandler records a rating for an asset
func AddReviewHandler(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := actor(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id", domain.ErrAssetNotFound)
		if !ok {
			return
		}
		var req ReviewRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Rating must be between 1 and 5"})
			return
		}
		review, err := svc.AddReview(c.Request.Context(), caller, id, req.Rating, req.Comment)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, review)
	}
}

// assetInputFromForm reads multipart (or url-encoded) asset fields. Empty
// values are treated as absent; list fields are comma-separated.
func assetInputFromForm(c *gin.Context, files Uploader, requireFile bool) (catalog.AssetInput, error) {
	var in catalog.AssetInput
	text := func(name string) *string {
		if v := c.PostForm(name); v != "" {
			return &v
		}
		return nil
	}
	in.Title = text("title")
	in.Description = text("description")
	in.DemoURL = text("demoUrl")
	in.Requirements = text("requirements")
	in.Version = text("version")
	if raw := c.PostForm("category"); raw != "" {
		category, err := domain.ParseCategory(raw)
		if err != nil {
			return in, err
		}
		in.Category = &category
	}
	if raw := c.PostForm("price"); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return in, domain.Validation("Invalid price")
		}
		in.Price = &price
	}
	switch c.PostForm("isFree") {
	case "true":
		v := true
		in.IsFree = &v
	case "false":
		v := false
		in.IsFree = &v
	}
	if raw := c.PostForm("tags"); raw != "" {
		in.Tags = catalog.SplitList(raw)
	}
	if raw := c.PostForm("features"); raw != "" {
		in.Features = catalog.SplitList(raw)
	}
	if raw := c.PostForm("technologies"); raw != "" {
		in.Technologies = catalog.SplitList(raw)
	}

	var archive []*multipart.FileHeader
	var previews []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil {
		archive = form.File["file"]
		previews = form.File["previewImages"]
	}
	if len(archive) == 0 && requireFile {
		return in, domain.Validation("Please upload a file")
	}
	if len(previews) > storage.MaxPreviewCount {
		return in, domain.Validation("At most 5 preview images are allowed")
	}
	if len(archive) > 0 {
		url, err := files.Save(archive[0])
		if err != nil {
			return in, err
		}
		in.FileURL = &url
	}
	if len(previews) > 0 {
		in.PreviewImages = make([]string, 0, len(previews))
		for _, fh := range previews {
			url, err := files.Save(fh)
			if err != nil {
				return in, err
			}
			in.PreviewImages = append(in.PreviewImages, url)
		}
	}
	return in, nil
}
