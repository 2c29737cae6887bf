package web

import (
	"net/http"
	"net/url"

	"outreach/internal/application/listutil"
	"outreach/internal/application/orchestrators"
)

// handleAdminMedia handles GET /admin/media
func handleAdminMedia(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireAdminPage(w, r); !ok {
		return
	}
	ctx := r.Context()

	pp := listutil.ParsePageParams(r.URL.Query())
	files, err := stores.MediaStore.List(ctx, pp.PerPage, (pp.Page-1)*pp.PerPage)
	if err != nil {
		internalError(w, err)
		return
	}
	total, err := stores.MediaStore.Count(ctx)
	if err != nil {
		internalError(w, err)
		return
	}

	renderTemplate(w, r, "admin_media.html", map[string]any{
		"Files":    files,
		"Page":     listutil.NewPageInfo(pp.Page, pp.PerPage, total),
		"Uploaded": r.URL.Query().Get("uploaded"),
		"Error":    r.URL.Query().Get("error"),
	})
}

// handleAdminMediaUpload handles POST /admin/media/upload.
// Accepts multipart form data with a single "file" part. The stored name can
// differ from the submitted one: extensions are lowercased and collisions get
// a numeric suffix, and the list page shows the stored name.
func handleAdminMediaUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	const maxUpload = 10 << 20 // 10 MB
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		http.Error(w, "request too large or malformed", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Redirect(w, r, "/admin/media?error="+url.QueryEscape("choose a file to upload"), http.StatusSeeOther)
		return
	}
	defer file.Close()

	result, err := orchestrators.ExecuteUploadMedia(r.Context(), orchestrators.UploadMediaInput{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		SizeBytes:   header.Size,
		Body:        file,
		ActorID:     sess.AccountID,
		ActorEmail:  sess.Email,
	}, orchestrators.UploadMediaDeps{
		Files:      stores.MediaFiles,
		MediaStore: stores.MediaStore,
		AuditStore: stores.AuditStore,
		GenerateID: generateID,
		Now:        timeNow,
	})
	if err != nil {
		http.Redirect(w, r, "/admin/media?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/admin/media?uploaded="+url.QueryEscape(result.OriginalName), http.StatusSeeOther)
}

// handleAdminMediaDelete handles POST /admin/media/delete
func handleAdminMediaDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	err := orchestrators.ExecuteDeleteMedia(r.Context(), orchestrators.DeleteMediaInput{
		MediaID:    r.FormValue("media_id"),
		ActorID:    sess.AccountID,
		ActorEmail: sess.Email,
	}, orchestrators.UploadMediaDeps{
		Files:      stores.MediaFiles,
		MediaStore: stores.MediaStore,
		AuditStore: stores.AuditStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}

	http.Redirect(w, r, "/admin/media", http.StatusSeeOther)
}
