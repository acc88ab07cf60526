package dto

// AnalyticsRequest selects the reporting window.
type AnalyticsRequest struct {
	Timeframe    string `query:"timeframe" validate:"omitempty,oneof=7d 30d 90d 1y"`
	InstructorID uint   `query:"instructor_id"`
}

// CountPoint is a count for one day, formatted YYYY-MM-DD.
type CountPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// AmountPoint is a revenue total for one month, formatted YYYY-MM.
type AmountPoint struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

// CourseMetricResponse is a course with its enrollment, completion and revenue totals.
type CourseMetricResponse struct {
	CourseID     uint    `json:"course_id"`
	Title        string  `json:"title"`
	Status       string  `json:"status"`
	Rating       float64 `json:"rating"`
	ReviewsCount int64   `json:"reviews_count"`
	Enrollments  int64   `json:"enrollments"`
	Completions  int64   `json:"completions"`
	Revenue      float64 `json:"revenue"`
}

// PlatformStats are platform-wide totals.
type PlatformStats struct {
	TotalStudents      int64   `json:"total_students"`
	TotalInstructors   int64   `json:"total_instructors"`
	TotalCourses       int64   `json:"total_courses"`
	TotalEnrollments   int64   `json:"total_enrollments"`
	TotalRevenue       float64 `json:"total_revenue"`
	CertificatesIssued int64   `json:"certificates_issued"`
	NewUsers           int64   `json:"new_users_period"`
	NewEnrollments     int64   `json:"new_enrollments_period"`
}

// PlatformCharts are time series for the admin dashboard.
type PlatformCharts struct {
	DailyRegistrations []CountPoint  `json:"daily_registrations"`
	DailyEnrollments   []CountPoint  `json:"daily_enrollments"`
	MonthlyRevenue     []AmountPoint `json:"monthly_revenue"`
}

// PlatformAnalyticsResponse is the admin overview.
type PlatformAnalyticsResponse struct {
	Timeframe  string                 `json:"timeframe"`
	Stats      PlatformStats          `json:"stats"`
	Charts     PlatformCharts         `json:"charts"`
	TopCourses []CourseMetricResponse `json:"top_courses"`
}

// InstructorStats are totals over an instructor's courses.
type InstructorStats struct {
	TotalCourses     int64   `json:"total_courses"`
	PublishedCourses int64   `json:"published_courses"`
	DraftCourses     int64   `json:"draft_courses"`
	TotalStudents    int64   `json:"total_students"`
	AverageRating    float64 `json:"average_rating"`
	TotalRevenue     float64 `json:"total_revenue"`
}

// InstructorAnalyticsResponse is the instructor overview.
type InstructorAnalyticsResponse struct {
	InstructorID     uint                   `json:"instructor_id"`
	Timeframe        string                 `json:"timeframe"`
	Stats            InstructorStats        `json:"stats"`
	Courses          []CourseMetricResponse `json:"courses"`
	DailyEnrollments []CountPoint           `json:"daily_enrollments"`
	MonthlyEarnings  []AmountPoint          `json:"monthly_earnings"`
}

// StudentStats are a learner's totals. Learning time is in seconds.
type StudentStats struct {
	EnrolledCourses    int     `json:"enrolled_courses"`
	CompletedCourses   int     `json:"completed_courses"`
	InProgressCourses  int     `json:"in_progress_courses"`
	AverageProgress    float64 `json:"average_progress"`
	TotalLearningTime  int64   `json:"total_learning_time"`
	CertificatesEarned int64   `json:"certificates_earned"`
}

// StudentCourseProgress is one enrolled course in the student report.
type StudentCourseProgress struct {
	CourseID uint   `json:"course_id"`
	Title    string `json:"title"`
	CourseProgressSummary
}

// StudentAnalyticsResponse is the learner report.
type StudentAnalyticsResponse struct {
	Stats            StudentStats            `json:"stats"`
	LearningActivity []CountPoint            `json:"learning_activity"`
	CourseProgress   []StudentCourseProgress `json:"course_progress"`
}

// CourseEnrollmentBreakdown splits a course's enrollments by type and status.
type CourseEnrollmentBreakdown struct {
	Total     int64 `json:"total"`
	Free      int64 `json:"free"`
	Paid      int64 `json:"paid"`
	Pending   int64 `json:"pending"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
}

// CourseAnalyticsResponse is the per-course report for owners and admins.
type CourseAnalyticsResponse struct {
	Course            CourseMetricResponse      `json:"course"`
	Enrollments       CourseEnrollmentBreakdown `json:"enrollments"`
	TotalLessons      int64                     `json:"total_lessons"`
	AverageCompletion float64                   `json:"average_completion"`
	StudentsFinished  int64                     `json:"students_finished"`
}
