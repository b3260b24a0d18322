package handlers

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"instagramclone/internal/models"
)

// maxFormBody bounds JSON and urlencoded bodies; uploads have their own limit.
const maxFormBody = 1 << 20

type formRequest interface {
	fromForm(values url.Values)
}

// decodeRequest fills dst from a JSON body or from form values, depending on
// the request content type.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst formRequest) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			return fmt.Errorf("decode json body: %w", err)
		}
		return nil
	}

	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("parse form: %w", err)
	}
	dst.fromForm(r.PostForm)
	return nil
}

func postIDFromPath(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["postId"], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("post %q: %w", mux.Vars(r)["postId"], models.ErrNotFound)
	}
	return id, nil
}

type FormField struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

// FormDescription answers the GET side of form routes.
type FormDescription struct {
	Action  string      `json:"action"`
	Method  string      `json:"method"`
	Enctype string      `json:"enctype"`
	Fields  []FormField `json:"fields"`
}
