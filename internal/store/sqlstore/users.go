package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/alphabot-ai/qaforum/internal/model"
	"github.com/alphabot-ai/qaforum/internal/store"
)

const userColumns = `id, name, email, password_hash, access_token, created_at`

func (s *Store) CreateUser(ctx context.Context, user *model.User) (int64, error) {
	if err := store.ValidateUser(user); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO users (name, email, password_hash, access_token, created_at)
VALUES (?, ?, ?, ?, ?)
`, user.Name, user.Email, user.PasswordHash, user.AccessToken, unixMilli(user.CreatedAt))
	if err != nil {
		return 0, s.translate(err)
	}
	return res.LastInsertId()
}

func (s *Store) GetUser(ctx context.Context, id int64) (model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return s.scanUserWithRefs(ctx, row)
}

func (s *Store) FindUserByName(ctx context.Context, name string) (model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE name = ?`, name)
	return s.scanUserWithRefs(ctx, row)
}

func (s *Store) FindUserByToken(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, store.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE access_token = ?`, token)
	u, err := scanUser(row)
	if err != nil {
		return model.User{}, s.translate(err)
	}
	return u, nil
}

func (s *Store) scanUserWithRefs(ctx context.Context, row *sql.Row) (model.User, error) {
	u, err := scanUser(row)
	if err != nil {
		return model.User{}, s.translate(err)
	}
	if u.QuestionIDs, err = s.selectIDs(ctx, `SELECT id FROM questions WHERE user_id = ? ORDER BY id`, u.ID); err != nil {
		return model.User{}, err
	}
	if u.AnswerIDs, err = s.selectIDs(ctx, `SELECT id FROM answers WHERE user_id = ? ORDER BY id`, u.ID); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	var created int64
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.AccessToken, &created); err != nil {
		return model.User{}, err
	}
	u.CreatedAt = time.UnixMilli(created)
	return u, nil
}

func (s *Store) selectIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
