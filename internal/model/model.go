package model

import "time"

type User struct {
	ID           int64     `json:"userId"`
	Name         string    `json:"name"`
	Email        string    `json:"-"`
	PasswordHash string    `json:"-"`
	AccessToken  string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	QuestionIDs  []int64   `json:"questions"`
	AnswerIDs    []int64   `json:"answers"`
}

type Question struct {
	ID        int64     `json:"_id"`
	Title     string    `json:"title"`
	Body      string    `json:"question"`
	Likes     int       `json:"likes"`
	UserID    int64     `json:"userId"`
	AnswerIDs []int64   `json:"answers"`
	CreatedAt time.Time `json:"createdAt"`
}

// QuestionDetail is a question with its answers populated.
type QuestionDetail struct {
	Question
	Answers []Answer `json:"answers"`
}

type Answer struct {
	ID         int64     `json:"_id"`
	Text       string    `json:"text"`
	Likes      int       `json:"likes"`
	QuestionID int64     `json:"questionId"`
	UserID     int64     `json:"userId"`
	CreatedAt  time.Time `json:"createdAt"`
}
