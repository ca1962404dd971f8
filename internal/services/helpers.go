package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/filestore"
	"fundledger/internal/logger"
	"fundledger/internal/models"
)

// likeEscaper escapes LIKE wildcards for queries written with ESCAPE '!'.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likePattern lower-cases q, escapes its wildcards and wraps it in % for a
// LIKE ... ESCAPE '!' match.
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(q))) + "%"
}

// bestEffort runs fn and logs a failure instead of returning it.
func bestEffort(what string, fn func() error, keysAndValues ...interface{}) {
	if err := fn(); err != nil {
		logger.Named("services").Warnw(what+" failed", append(keysAndValues, "error", err)...)
	}
}

// findProject loads a live (not soft-deleted) project.
func findProject(db *gorm.DB, projectID string) (*models.Project, error) {
	var project models.Project
	if err := db.Where("id = ?", projectID).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProjectNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &project, nil
}

// storeUpload saves file under subfolder, mapping any failure to UploadFailed.
func storeUpload(files filestore.Store, file *filestore.Upload, subfolder string) (string, error) {
	if files == nil {
		return "", apperrors.WithMessage(apperrors.ErrUploadFailed, "File uploads are not configured")
	}
	path, err := files.Upload(file, subfolder)
	if err != nil {
		return "", apperrors.WithMessage(apperrors.ErrUploadFailed, "File upload failed: "+err.Error())
	}
	return path, nil
}

// removeStoredFile deletes path from files, logging instead of failing.
func removeStoredFile(files filestore.Store, path string) {
	if files == nil || path == "" {
		return
	}
	bestEffort("stored file delete", func() error { return files.Delete(path) }, "path", path)
}
