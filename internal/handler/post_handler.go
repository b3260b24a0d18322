package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	"instagramclone/internal/models"
	"instagramclone/internal/service"
)

const photoField = "photo"

type CommentRequest struct {
	Text string `json:"text" validate:"max=2000"`
	// Comment is the older field name, still accepted.
	Comment string `json:"comment" validate:"max=2000"`
}

func (c *CommentRequest) fromForm(v url.Values) {
	c.Text = v.Get("text")
	c.Comment = v.Get("comment")
}

func (c CommentRequest) text() string {
	if c.Text != "" {
		return c.Text
	}
	return c.Comment
}

type LikeResponse struct {
	PostID    int64 `json:"postId"`
	LikeCount int64 `json:"likeCount"`
}

var uploadForm = FormDescription{
	Action:  "/upload",
	Method:  http.MethodPost,
	Enctype: "multipart/form-data",
	Fields: []FormField{
		{Name: photoField, Type: "file", Required: true},
		{Name: "caption", Type: "text"},
		{Name: "title", Type: "text"},
		{Name: "location", Type: "text"},
		{Name: "people", Type: "text"},
	},
}

func (h *Handlers) GetFeed(w http.ResponseWriter, r *http.Request) {
	feed, err := h.FeedService.GetFeed(r.Context(), h.Sessions.Token(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, feed, http.StatusOK)
}

// GetImages returns the bare post list without viewer information.
func (h *Handlers) GetImages(w http.ResponseWriter, r *http.Request) {
	feed, err := h.FeedService.GetFeed(r.Context(), "")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, feed.Posts, http.StatusOK)
}

func (h *Handlers) GetPost(w http.ResponseWriter, r *http.Request) {
	postID, err := postIDFromPath(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	post, err := h.FeedService.GetPost(r.Context(), postID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, post, http.StatusOK)
}

// requireCreator checks the session before any upload body is read.
func (h *Handlers) requireCreator(r *http.Request) error {
	sess, ok := h.AuthService.Current(r.Context(), h.Sessions.Token(r))
	if !ok {
		return models.ErrUnauthenticated
	}
	if !sess.Role.CanUpload() {
		return models.ErrForbidden
	}
	return nil
}

func (h *Handlers) UploadForm(w http.ResponseWriter, r *http.Request) {
	if err := h.requireCreator(r); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, uploadForm, http.StatusOK)
}

func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	if err := h.requireCreator(r); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	// setting the size limit from the config
	r.Body = http.MaxBytesReader(w, r.Body, h.Cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(h.Cfg.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, fmt.Sprintf("upload is larger than %s", humanize.IBytes(uint64(h.Cfg.MaxUploadSize))),
				codeTooLarge, http.StatusRequestEntityTooLarge)
			return
		}
		WriteError(w, "expected a multipart/form-data body", codeInvalidRequest, http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	req := service.UploadRequest{
		Caption:  r.FormValue("caption"),
		Title:    r.FormValue("title"),
		Location: r.FormValue("location"),
		People:   r.FormValue("people"),
	}

	file, header, err := r.FormFile(photoField)
	switch {
	case errors.Is(err, http.ErrMissingFile):
		// the service reports the missing file
	case err != nil:
		WriteError(w, "could not read the uploaded file", codeInvalidRequest, http.StatusBadRequest)
		return
	default:
		defer file.Close()

		req.FileName = header.Filename
		req.Data, err = io.ReadAll(file)
		if err != nil {
			WriteError(w, "could not read the uploaded file", codeInvalidRequest, http.StatusBadRequest)
			return
		}

		if len(req.Data) > 0 {
			req.MimeType = detectMimeType(header.Header.Get("Content-Type"), req.Data)
			if !strings.HasPrefix(req.MimeType, "image/") {
				WriteError(w, fmt.Sprintf("%s is not an image", req.MimeType), codeUnsupportedMedia, http.StatusUnsupportedMediaType)
				return
			}
		}
	}

	post, err := h.FeedService.Upload(r.Context(), h.Sessions.Token(r), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, post, http.StatusCreated)
}

// detectMimeType trusts a specific part header and sniffs the bytes otherwise.
func detectMimeType(declared string, data []byte) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return mimetype.Detect(data).String()
}

func (h *Handlers) Like(w http.ResponseWriter, r *http.Request) {
	postID, err := postIDFromPath(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	count, err := h.FeedService.Like(r.Context(), h.Sessions.Token(r), postID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, LikeResponse{PostID: postID, LikeCount: count}, http.StatusOK)
}

func (h *Handlers) Comment(w http.ResponseWriter, r *http.Request) {
	postID, err := postIDFromPath(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	var req CommentRequest
	if err := decodeRequest(w, r, &req); err != nil {
		WriteError(w, "invalid request body", codeInvalidRequest, http.StatusBadRequest)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, "comment is longer than 2000 characters", codeInvalidRequest, http.StatusBadRequest)
		return
	}

	comment, err := h.FeedService.Comment(r.Context(), h.Sessions.Token(r), postID, req.text())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, comment, http.StatusCreated)
}
