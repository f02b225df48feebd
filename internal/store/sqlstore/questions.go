package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/alphabot-ai/qaforum/internal/model"
	"github.com/alphabot-ai/qaforum/internal/store"
)

const questionColumns = `q.id, q.title, q.body, q.likes, q.user_id, q.created_at`

func (s *Store) CreateQuestion(ctx context.Context, question *model.Question) (int64, error) {
	if err := store.ValidateQuestion(question); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO questions (title, body, likes, user_id, created_at)
VALUES (?, ?, 0, ?, ?)
`, question.Title, question.Body, question.UserID, unixMilli(question.CreatedAt))
	if err != nil {
		return 0, s.translate(err)
	}
	return res.LastInsertId()
}

func (s *Store) GetQuestion(ctx context.Context, id int64) (model.QuestionDetail, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM questions q WHERE q.id = ?`, id)
	q, err := scanQuestion(row)
	if err != nil {
		return model.QuestionDetail{}, s.translate(err)
	}
	answers, err := s.ListAnswers(ctx, store.AnswerListOpts{QuestionID: id})
	if err != nil {
		return model.QuestionDetail{}, err
	}
	q.AnswerIDs = make([]int64, 0, len(answers))
	for _, a := range answers {
		q.AnswerIDs = append(q.AnswerIDs, a.ID)
	}
	return model.QuestionDetail{Question: q, Answers: answers}, nil
}

func (s *Store) ListQuestions(ctx context.Context, opts store.QuestionListOpts) ([]model.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions q WHERE 1 = 1`
	var args []any
	if opts.UserID != 0 {
		query += ` AND q.user_id = ?`
		args = append(args, opts.UserID)
	}
	if opts.Query != "" {
		query += ` AND (` + s.dialect.fold("q.title") + ` LIKE ? ESCAPE '!' OR ` + s.dialect.fold("q.body") + ` LIKE ? ESCAPE '!')`
		pattern := containsPattern(opts.Query)
		args = append(args, pattern, pattern)
	}
	if opts.Unanswered {
		query += ` AND NOT EXISTS (SELECT 1 FROM answers a WHERE a.question_id = q.id)`
	}
	query += orderClause(opts.Sort, "q")
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	questions := make([]model.Question, 0)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// Release the connection before the follow-up query; SQLite runs on one.
	rows.Close()

	if err := s.attachAnswerIDs(ctx, questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (s *Store) IncrementQuestionLikes(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE questions SET likes = likes + 1 WHERE id = ?`, id)
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

func (s *Store) attachAnswerIDs(ctx context.Context, questions []model.Question) error {
	if len(questions) == 0 {
		return nil
	}
	index := make(map[int64]int, len(questions))
	args := make([]any, 0, len(questions))
	for i := range questions {
		questions[i].AnswerIDs = []int64{}
		index[questions[i].ID] = i
		args = append(args, questions[i].ID)
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, question_id FROM answers
WHERE question_id IN (`+placeholders(len(args))+`)
ORDER BY id
`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id, questionID int64
		if err := rows.Scan(&id, &questionID); err != nil {
			return err
		}
		if i, ok := index[questionID]; ok {
			questions[i].AnswerIDs = append(questions[i].AnswerIDs, id)
		}
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row scanner) (model.Question, error) {
	var q model.Question
	var created int64
	var body sql.NullString
	if err := row.Scan(&q.ID, &q.Title, &body, &q.Likes, &q.UserID, &created); err != nil {
		return model.Question{}, err
	}
	q.Body = body.String
	q.CreatedAt = time.UnixMilli(created)
	return q, nil
}
