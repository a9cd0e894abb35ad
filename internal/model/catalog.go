package model

import (
	"time"

	"github.com/google/uuid"
)

// Semester is the top level of the catalog hierarchy.
type Semester struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateSemesterRequest is the payload for creating a semester.
type CreateSemesterRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
	Slug string `json:"slug" binding:"required,min=1,max=100"`
}

// Subject groups quizzes under a semester. (semester, name) is unique.
type Subject struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	SemesterID uuid.UUID `json:"semester_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateSubjectRequest is the payload for creating a subject.
type CreateSubjectRequest struct {
	Name       string    `json:"name" binding:"required,min=1,max=100"`
	Slug       string    `json:"slug" binding:"required,min=1,max=100"`
	SemesterID uuid.UUID `json:"semester_id" binding:"required"`
}
