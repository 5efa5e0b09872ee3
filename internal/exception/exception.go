package exception

import (
	"errors"
	"net/http"
)

// Code identifies a business-rule failure. Each code carries the message shown
// to clients and the HTTP status the API layer answers with.
type Code int

const (
	CategoryNotFound Code = iota + 1
	ChallengeNotFound
	UserNotFound
	UserMountainNotFound
	MeetingNotFound
)

var codeDetails = map[Code]struct {
	status  int
	message string
}{
	CategoryNotFound:     {http.StatusNotFound, "존재하지 않는 카테고리입니다."},
	ChallengeNotFound:    {http.StatusNotFound, "존재하지 않는 챌린지입니다."},
	UserNotFound:         {http.StatusNotFound, "존재하지 않는 회원입니다."},
	UserMountainNotFound: {http.StatusNotFound, "존재하지 않는 유저 등산 정보입니다."},
	MeetingNotFound:      {http.StatusNotFound, "모임을 찾을 수 없습니다."},
}

func (c Code) Status() int {
	if d, ok := codeDetails[c]; ok {
		return d.status
	}
	return http.StatusInternalServerError
}

func (c Code) Message() string {
	if d, ok := codeDetails[c]; ok {
		return d.message
	}
	return "unknown error"
}

type ServiceLogicError struct {
	Code Code
}

func New(code Code) *ServiceLogicError {
	return &ServiceLogicError{Code: code}
}

func (e *ServiceLogicError) Error() string {
	return e.Code.Message()
}

// Is matches any ServiceLogicError carrying the same code.
func (e *ServiceLogicError) Is(target error) bool {
	t, ok := target.(*ServiceLogicError)
	return ok && t.Code == e.Code
}

// As extracts the ServiceLogicError from err's chain.
func As(err error) (*ServiceLogicError, bool) {
	var sle *ServiceLogicError
	if errors.As(err, &sle) {
		return sle, true
	}
	return nil, false
}
