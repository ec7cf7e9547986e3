package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	UserID    uuid.UUID
	UserName  string
	Comment   string
	CreatedAt time.Time
}

type AddCommentParams struct {
	LeadID  uuid.UUID
	UserID  uuid.UUID
	Comment string
}

// AddComment appends a note to the lead's comment thread and returns it with
// the author name resolved.
func (r *Repository) AddComment(ctx context.Context, params AddCommentParams) (Comment, error) {
	var commentID uuid.UUID
	var createdAt time.Time
	err := r.pool.QueryRow(ctx, `
		INSERT INTO lead_comments (lead_id, user_id, comment)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, params.LeadID, params.UserID, params.Comment).Scan(&commentID, &createdAt)
	if err != nil {
		return Comment{}, err
	}

	var userName string
	err = r.pool.QueryRow(ctx, `SELECT name FROM users WHERE id = $1`, params.UserID).Scan(&userName)
	if err != nil {
		return Comment{}, err
	}

	return Comment{
		ID:        commentID,
		LeadID:    params.LeadID,
		UserID:    params.UserID,
		UserName:  userName,
		Comment:   params.Comment,
		CreatedAt: createdAt,
	}, nil
}

// ListComments returns a lead's comments, newest first.
func (r *Repository) ListComments(ctx context.Context, leadID uuid.UUID) ([]Comment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.lead_id, c.user_id, u.name, c.comment, c.created_at
		FROM lead_comments c
		JOIN users u ON c.user_id = u.id
		WHERE c.lead_id = $1
		ORDER BY c.created_at DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]Comment, 0)
	for rows.Next() {
		var comment Comment
		err := rows.Scan(&comment.ID, &comment.LeadID, &comment.UserID,
			&comment.UserName, &comment.Comment, &comment.CreatedAt)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return comments, nil
}
