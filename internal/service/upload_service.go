package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/observability"
	"github.com/noah-isme/learnhub-api/internal/repository"
)

// MaxImageBytes caps course cover uploads.
const MaxImageBytes int64 = 10 * 1024 * 1024

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// FileUploader stores a file and returns its public URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (string, error)
}

// UploadService stores course cover images.
type UploadService interface {
	UploadCourseImage(ctx context.Context, actor ActivityActor, courseID uint, file *multipart.FileHeader) (dto.CourseImageResponse, error)
}

type uploadService struct {
	courses  repository.CourseRepository
	uploader FileUploader
	activity ActivityRecorder
	logger   zerolog.Logger
	maxSize  int64
	tracer   trace.Tracer
	now      func() time.Time
}

// NewUploadService constructs the upload service. A nil uploader makes every upload
// fail with ErrUploadUnavailable.
func NewUploadService(courses repository.CourseRepository, uploader FileUploader, activity ActivityRecorder, logger zerolog.Logger) UploadService {
	return &uploadService{
		courses:  courses,
		uploader: uploader,
		activity: activity,
		logger:   logger.With().Str("component", "upload_service").Logger(),
		maxSize:  MaxImageBytes,
		tracer:   otel.Tracer("github.com/noah-isme/learnhub-api/internal/service/upload"),
		now:      time.Now,
	}
}

func (s *uploadService) UploadCourseImage(ctx context.Context, actor ActivityActor, courseID uint, file *multipart.FileHeader) (dto.CourseImageResponse, error) {
	ctx, span := s.tracer.Start(ctx, "upload.course_image", trace.WithAttributes(
		attribute.Int("course.id", int(courseID)),
		attribute.Int64("upload.max_bytes", s.maxSize),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	reject := func(reason string, err error) (dto.CourseImageResponse, error) {
		observability.UploadRejected().WithLabelValues(reason).Inc()
		observability.UploadRequests().WithLabelValues("rejected").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		return dto.CourseImageResponse{}, err
	}

	if s.uploader == nil {
		return reject("unavailable", ErrUploadUnavailable)
	}
	if file == nil {
		return reject("missing", ErrInvalidInput)
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return dto.CourseImageResponse{}, mapCourseError(err)
	}
	if !canManageCourse(actor, course) {
		return dto.CourseImageResponse{}, ErrNotCourseOwner
	}

	span.SetAttributes(
		attribute.String("upload.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("upload.request_size", file.Size),
	)
	if file.Size > s.maxSize {
		return reject("size", ErrFileTooLarge)
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		return dto.CourseImageResponse{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		return dto.CourseImageResponse{}, err
	}
	if int64(buf.Len()) > s.maxSize {
		return reject("size", ErrFileTooLarge)
	}

	detected := mimetype.Detect(buf.Bytes())
	contentType := strings.ToLower(detected.String())
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	span.SetAttributes(attribute.String("upload.detected_mime", contentType))
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return reject("type", ErrUnsupportedMediaType)
	}

	checksum := sha256.Sum256(buf.Bytes())
	name := fmt.Sprintf("courses/%d/%s-%d%s", courseID, sanitizeFileName(file.Filename), s.now().UTC().Unix(), ext)

	url, err := s.uploader.Upload(ctx, name, bytes.NewReader(buf.Bytes()), int64(buf.Len()), contentType)
	if err != nil {
		observability.UploadRequests().WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		s.logger.Error().Err(err).Uint("course_id", courseID).Msg("failed to store course image")
		return dto.CourseImageResponse{}, err
	}

	if _, err := s.courses.Update(ctx, courseID, map[string]interface{}{"image_url": url}); err != nil {
		span.RecordError(err)
		return dto.CourseImageResponse{}, mapCourseError(err)
	}

	observability.UploadRequests().WithLabelValues("stored").Inc()
	span.SetStatus(codes.Ok, "stored")
	recordActivity(ctx, s.activity, s.logger, actor, "course.image_uploaded", "course", courseID, map[string]interface{}{
		"mime_type":  contentType,
		"size_bytes": buf.Len(),
	})

	return dto.CourseImageResponse{
		CourseID:  courseID,
		ImageURL:  url,
		MimeType:  contentType,
		SizeBytes: int64(buf.Len()),
		Checksum:  hex.EncodeToString(checksum[:]),
	}, nil
}

// sanitizeFileName reduces a client file name to a lowercase slug without extension.
func sanitizeFileName(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		return "cover"
	}
	return base
}

