// Package httpapp serves the forum's JSON API on echo.
//
// Every request passes recover, request id, access log, CORS and a store
// ping before reaching its handler. Routes that change data also run
// RequireUser, which resolves the raw Authorization header to a user:
//
//	POST /users                    sign up, returns an accessToken
//	POST /sessions                 log in, returns the same token
//	GET  /users/:id/secret         caller's own profile message
//	GET  /user/:id                 public user
//	GET  /questions?query=         search, newest first
//	POST /questions                ask (auth)
//	GET  /question/:id             question with answers
//	POST /question/:id/like        like (auth)
//	GET  /question/:id/answers     answers of one question
//	POST /question/:id/answers     answer (auth)
//	GET  /profile/:userId/questions
//	GET  /latest/:userId/questions three newest
//	GET  /latest/:userId/answers   three newest
//	GET  /popular                  three most liked
//	GET  /noanswer                 questions without answers
//	GET  /answers                  every answer
//	POST /answer/:id/like          like (auth)
//
// Failures are {"message": "..."} bodies with fixed text. Store outages
// are 503.
package httpapp
