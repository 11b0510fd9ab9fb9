package entity

// Field limits enforced on submitted payloads
const (
	MaxTitleLength   = 255
	MaxCommentLength = 1000
	MaxNoteLength    = 1000
	MaxMethodLength  = 200
)
