package models

import (
	"time"

	"github.com/google/uuid"
)

// ReportType distinguishes questions, which get a solution, from shared knowledge.
type ReportType string

const (
	ReportTypeQuestion  ReportType = "question"
	ReportTypeKnowledge ReportType = "knowledge"
)

// ReportStatus tracks a knowledge post through processing.
type ReportStatus string

const (
	ReportStatusPending ReportStatus = "pending"
	ReportStatusOpen    ReportStatus = "open"
)

// KnowledgePost is a farmer's question or field observation.
type KnowledgePost struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	UserID       *uuid.UUID   `json:"user_id,omitempty" db:"user_id"`
	Type         ReportType   `json:"type" db:"type"`
	OriginalText string       `json:"original_text" db:"original_text"`
	EnglishText  *string      `json:"english_text,omitempty" db:"english_text"`
	Status       ReportStatus `json:"status" db:"status"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the KnowledgePost model
func (KnowledgePost) TableName() string {
	return "knowledge_posts"
}

// Solution answers a knowledge post. UserID is nil for AI-authored answers.
type Solution struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	ReportID     uuid.UUID  `json:"report_id" db:"report_id"`
	UserID       *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	SolutionText string     `json:"solution_text" db:"solution_text"`
	AIGenerated  bool       `json:"ai_generated" db:"ai_generated"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Solution model
func (Solution) TableName() string {
	return "solutions"
}

// NewAISolution creates a system-authored solution for a report.
func NewAISolution(reportID uuid.UUID, text string) *Solution {
	return &Solution{
		ID:           uuid.New(),
		ReportID:     reportID,
		SolutionText: text,
		AIGenerated:  true,
		CreatedAt:    time.Now().UTC(),
	}
}

// ReportMatch is a previously answered report similar to a query embedding.
type ReportMatch struct {
	ReportID     uuid.UUID `json:"report_id"`
	SolutionText string    `json:"solution_text"`
	Similarity   float64   `json:"similarity"`
}
