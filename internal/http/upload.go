package http

import (
	"net/http"

	"github.com/charahub/charahub/internal/images"
	"github.com/charahub/charahub/pkg/httpx"
	"github.com/charahub/charahub/pkg/slogx"
)

// UploadImageHandler relays a short-lived direct-upload URL from the image
// CDN. The server never touches the image bytes. Registered for POST only;
// a GET on the path answers 405 via the mux.
type UploadImageHandler struct {
	Images *images.Client
}

type uploadImageResponse struct {
	Success   bool   `json:"success"`
	ImageID   string `json:"imageId"`
	UploadURL string `json:"uploadURL"`
}

func (h *UploadImageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	grant, err := h.Images.CreateDirectUploadURL(ctx)
	if err != nil {
		log.Error("direct-upload grant failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, uploadImageResponse{
		Success:   true,
		ImageID:   grant.ID,
		UploadURL: grant.UploadURL,
	})
}
