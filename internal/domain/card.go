package domain

// Draft is a flashcard entered locally that the backend has not accepted yet.
// Drafts carry no identifier; the draft store addresses them by position.
type Draft struct {
	Front   string `json:"front" validate:"required"`
	Back    string `json:"back" validate:"required"`
	Subject string `json:"subject" validate:"required"`
	Test    string `json:"test" validate:"required"`
}

// Flashcard is a card persisted by the backend.
type Flashcard struct {
	ID       int64  `json:"id"`
	TestID   int64  `json:"test_id"`
	Front    string `json:"front"`
	Back     string `json:"back"`
	Mastered bool   `json:"mastered"`
}

// Subject groups tests.
type Subject struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Test groups flashcards within a subject.
type Test struct {
	ID        int64  `json:"id"`
	SubjectID int64  `json:"subject_id"`
	Name      string `json:"name"`
}

// UploadResult reports the aggregate outcome of a batch upload.
// The backend does not say which drafts were skipped, only how many.
type UploadResult struct {
	Uploaded int `json:"uploaded"`
	Skipped  int `json:"skipped"`
}
