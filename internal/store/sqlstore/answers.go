package sqlstore

import (
	"context"
	"time"

	"github.com/alphabot-ai/qaforum/internal/model"
	"github.com/alphabot-ai/qaforum/internal/store"
)

func (s *Store) CreateAnswer(ctx context.Context, answer *model.Answer) (int64, error) {
	if err := store.ValidateAnswer(answer); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO answers (text, likes, question_id, user_id, created_at)
VALUES (?, 0, ?, ?, ?)
`, answer.Text, answer.QuestionID, answer.UserID, unixMilli(answer.CreatedAt))
	if err != nil {
		return 0, s.translate(err)
	}
	return res.LastInsertId()
}

func (s *Store) ListAnswers(ctx context.Context, opts store.AnswerListOpts) ([]model.Answer, error) {
	query := `SELECT a.id, a.text, a.likes, a.question_id, a.user_id, a.created_at FROM answers a WHERE 1 = 1`
	var args []any
	if opts.QuestionID != 0 {
		query += ` AND a.question_id = ?`
		args = append(args, opts.QuestionID)
	}
	if opts.UserID != 0 {
		query += ` AND a.user_id = ?`
		args = append(args, opts.UserID)
	}
	query += orderClause(opts.Sort, "a")
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	answers := make([]model.Answer, 0)
	for rows.Next() {
		var a model.Answer
		var created int64
		if err := rows.Scan(&a.ID, &a.Text, &a.Likes, &a.QuestionID, &a.UserID, &created); err != nil {
			return nil, err
		}
		a.CreatedAt = time.UnixMilli(created)
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

func (s *Store) IncrementAnswerLikes(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE answers SET likes = likes + 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
