package handler

import (
	"net/http"

	"github.com/jobseek-dev/job-board/backend/internal/domain"
)

type ContextKey string

var (
	RequestIDCtx ContextKey = "requestID"
	ClaimsCtx    ContextKey = "claims"
	MyInfoCtx    ContextKey = "myInfo"
)

func requestIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(RequestIDCtx).(string)
	return id
}

// myInfoFrom 返回 auth 中间件加载的当前用户，未登录时为 nil
func myInfoFrom(r *http.Request) *domain.User {
	user, _ := r.Context().Value(MyInfoCtx).(*domain.User)
	return user
}
