package dto

import (
	"strconv"
	"time"

	"github.com/noah-isme/learnhub-api/internal/models"
)

// ReviewCreateRequest rates a course the caller is enrolled in.
type ReviewCreateRequest struct {
	CourseID uint   `json:"course_id" validate:"required,gt=0"`
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Comment  string `json:"comment" validate:"required,min=10,max=1000"`
}

// ReviewUpdateRequest replaces the rating and comment of the caller's review.
type ReviewUpdateRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,min=10,max=1000"`
}

// ReviewListRequest pages through a course's reviews.
type ReviewListRequest struct {
	SortBy string `query:"sort_by" validate:"omitempty,oneof=newest rating_high rating_low helpful"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}

// ReviewerSummary identifies the author of a review.
type ReviewerSummary struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ReviewResponse serializes a review.
type ReviewResponse struct {
	ID           uint            `json:"id"`
	CourseID     uint            `json:"course_id"`
	Rating       int             `json:"rating"`
	Comment      string          `json:"comment"`
	HelpfulCount int64           `json:"helpful_count"`
	Reviewer     ReviewerSummary `json:"reviewer"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ReviewStatsResponse summarises a course's ratings. Distribution is keyed "1" to "5".
type ReviewStatsResponse struct {
	AverageRating float64          `json:"average_rating"`
	TotalReviews  int64            `json:"total_reviews"`
	Distribution  map[string]int64 `json:"distribution"`
}

// CourseReviewsResponse is a page of reviews plus course-wide stats.
type CourseReviewsResponse struct {
	Reviews []ReviewResponse    `json:"reviews"`
	Stats   ReviewStatsResponse `json:"stats"`
}

// HelpfulResponse reports the recomputed helpful count.
type HelpfulResponse struct {
	ReviewID     uint  `json:"review_id"`
	HelpfulCount int64 `json:"helpful_count"`
}

// NewReviewResponse converts a review with its preloaded author.
func NewReviewResponse(review models.Review) ReviewResponse {
	return ReviewResponse{
		ID:           review.ID,
		CourseID:     review.CourseID,
		Rating:       review.Rating,
		Comment:      review.Comment,
		HelpfulCount: review.HelpfulCount,
		Reviewer: ReviewerSummary{
			ID:        review.User.ID,
			FirstName: review.User.FirstName,
			LastName:  review.User.LastName,
		},
		CreatedAt: review.CreatedAt,
		UpdatedAt: review.UpdatedAt,
	}
}

// NewReviewStatsResponse fills every star bucket, including empty ones.
func NewReviewStatsResponse(average float64, total int64, distribution map[int]int64) ReviewStatsResponse {
	buckets := make(map[string]int64, 5)
	for star := 1; star <= 5; star++ {
		buckets[strconv.Itoa(star)] = distribution[star]
	}
	return ReviewStatsResponse{AverageRating: average, TotalReviews: total, Distribution: buckets}
}
