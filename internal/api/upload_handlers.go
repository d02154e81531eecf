package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/ec-shop-api/internal/upload"
)

const imageField = "image"

// multipartOverhead leaves room for boundaries and the product_id field.
const multipartOverhead = 64 << 10

// UploadImage stores a multipart image. With product_id set, the URL is
// appended to that product's images.
func (h *Handlers) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.svc.Uploads.MaxBytes()+multipartOverhead)

	file, header, err := c.Request.FormFile(imageField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, upload.ErrTooLarge)
			return
		}
		fail(c, upload.ErrEmpty)
		return
	}
	defer file.Close()

	if header.Size > h.svc.Uploads.MaxBytes() {
		fail(c, upload.ErrTooLarge)
		return
	}

	// Reject an unknown product before anything is stored.
	productID := c.Request.FormValue("product_id")
	if productID != "" {
		if _, err := h.svc.Products.Get(c.Request.Context(), productID, true); err != nil {
			fail(c, err)
			return
		}
	}

	res, err := h.svc.Uploads.Image(c.Request.Context(), file)
	if err != nil {
		fail(c, err)
		return
	}

	if productID == "" {
		respond(c, http.StatusCreated, "image uploaded", res)
		return
	}

	p, err := h.svc.Products.AddImage(c.Request.Context(), productID, res.URL)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "image uploaded", gin.H{"upload": res, "product": p})
}
