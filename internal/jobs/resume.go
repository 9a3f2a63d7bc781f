package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"jobboard/internal/errcode"
	"jobboard/internal/scan"
)

// ResumeUpload is an attached file. Open may be called more than once.
type ResumeUpload struct {
	Filename    string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

var resumeTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

func resumeExt(filename string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	_, ok := resumeTypes[ext]
	return ext, ok
}

// storeResume validates, scans and uploads a resume and returns its key.
func (s *Service) storeResume(ctx context.Context, candidateID uint, up *ResumeUpload) (string, error) {
	if s.store == nil {
		return "", errcode.Invalid("Resume uploads are not available right now.")
	}
	ext, ok := resumeExt(up.Filename)
	if !ok {
		return "", errcode.Invalid("Resume must be a PDF, DOC or DOCX file.")
	}
	if up.Size <= 0 {
		return "", errcode.Invalid("Resume file is empty.")
	}
	if up.Size > s.maxResumeBytes {
		return "", errcode.Invalid(fmt.Sprintf("Resume must be at most %d MB.", s.maxResumeBytes>>20))
	}

	r, err := up.Open()
	if err != nil {
		return "", fmt.Errorf("open resume: %w", err)
	}
	err = s.scanner.Scan(ctx, r)
	r.Close()
	if err != nil {
		if errors.Is(err, scan.ErrInfected) {
			return "", errcode.Invalid("Resume was rejected by the virus scanner.")
		}
		return "", fmt.Errorf("scan resume: %w", err)
	}

	r, err = up.Open()
	if err != nil {
		return "", fmt.Errorf("reopen resume: %w", err)
	}
	defer r.Close()

	key := fmt.Sprintf("resumes/%d/%s%s", candidateID, uuid.NewString(), ext)
	if err := s.store.UploadFile(ctx, key, r, up.Size, resumeTypes[ext]); err != nil {
		return "", fmt.Errorf("upload resume: %w", err)
	}
	return key, nil
}

// validResumeKey 校验数据库中的对象键确实指向该候选人的简历目录，
// 防止被篡改的记录借 presign 读取任意对象。
func validResumeKey(candidateID uint, key string) bool {
	if key == "" || !utf8.ValidString(key) || len(key) > 200 {
		return false
	}
	if !strings.HasPrefix(key, fmt.Sprintf("resumes/%d/", candidateID)) {
		return false
	}
	if strings.Contains(key, "..") || strings.Contains(key, "\\") || strings.Contains(key, "//") {
		return false
	}
	_, ok := resumeExt(key)
	return ok
}
