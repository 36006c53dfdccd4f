package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/we-kode/mml.media/logger"
	"github.com/we-kode/mml.media/model"
)

const maxUploadSize = 512 << 20 // 512 MB

// UploadRecordHandler accepts one multipart audio file, stages it in the
// upload directory and hands it to the indexing queue.
func (h *APIHandler) UploadRecordHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".mp3") {
		writeError(w, http.StatusUnsupportedMediaType, "only mp3 files are accepted")
		return
	}

	fileName, err := h.stageUpload(file, header.Filename)
	if err != nil {
		logger.Error("failed to stage upload",
			logger.String("file", header.Filename),
			logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	evt := model.FileUploaded{
		FileName: fileName,
		Date:     parseLastModified(r.FormValue("lastModifiedDate")),
		Groups:   r.Form["groups"],
	}
	if err := h.queue.Publish(r.Context(), evt); err != nil {
		logger.Error("failed to enqueue upload",
			logger.String("file", fileName),
			logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to enqueue upload")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"fileName": fileName})
}

// stageUpload writes the file under its original name, suffixing on
// collision so the date token in the name survives.
func (h *APIHandler) stageUpload(src io.Reader, originalName string) (string, error) {
	name := filepath.Base(originalName)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	target := filepath.Join(h.cfg.UploadDir, name)
	for i := 1; ; i++ {
		if _, err := os.Stat(target); os.IsNotExist(err) {
			break
		}
		name = fmt.Sprintf("%s_%d%s", stem, i, ext)
		target = filepath.Join(h.cfg.UploadDir, name)
	}

	out, err := os.Create(target)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		os.Remove(target)
		return "", err
	}
	return name, nil
}

func parseLastModified(raw string) time.Time {
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.UTC()
	}
	return time.Now().UTC()
}
