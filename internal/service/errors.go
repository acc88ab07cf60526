package service

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("insufficient permissions")

	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is deactivated")
	ErrUserNotFound       = errors.New("user not found")
	ErrCannotModifySelf   = errors.New("administrators cannot change their own account")
	ErrUserOwnsCourses    = errors.New("user still owns courses")

	ErrCourseNotFound     = errors.New("course not found")
	ErrModuleNotFound     = errors.New("module not found")
	ErrLessonNotFound     = errors.New("lesson not found")
	ErrNotCourseOwner     = errors.New("only the course instructor can modify this course")
	ErrCoursesUnavailable = errors.New("some courses not found")

	ErrAlreadyEnrolled = errors.New("already enrolled in this course")
	ErrNotEnrolled     = errors.New("not enrolled in this course")
	ErrLessonLocked    = errors.New("enroll in this course to access the lesson")
	ErrNoteNotFound    = errors.New("note not found")

	ErrCourseNotCompleted  = errors.New("course not completed")
	ErrCertificateExists   = errors.New("certificate already generated for this course")
	ErrCertificateNotFound = errors.New("certificate not found")

	ErrReviewExists     = errors.New("you have already reviewed this course")
	ErrReviewNotFound   = errors.New("review not found")
	ErrAlreadyHelpful   = errors.New("review already marked as helpful")
	ErrOwnReviewHelpful = errors.New("cannot mark your own review as helpful")

	ErrPaymentNotFound     = errors.New("payment not found")
	ErrPaymentNotCompleted = errors.New("payment not completed")
	ErrPaymentFailed       = errors.New("payment failed")

	ErrNotificationNotFound = errors.New("notification not found or already read")

	ErrUploadUnavailable    = errors.New("file storage is not configured")
	ErrUnsupportedMediaType = errors.New("unsupported file type")
	ErrFileTooLarge         = errors.New("file exceeds maximum size")
	ErrInstructorIDRequired = errors.New("instructor_id is required")
	ErrSeedDisabled         = errors.New("seeding is disabled")
	ErrSeedUnauthorized     = errors.New("invalid seed token")
)
