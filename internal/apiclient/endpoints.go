package apiclient

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"matchdash/internal/domain"
)

func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	if err := c.do(ctx, "list users", http.MethodGet, "users/", nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *Client) ListReceivedInterests(ctx context.Context) ([]domain.InterestRequest, error) {
	var out []domain.InterestRequest
	if err := c.do(ctx, "list received interests", http.MethodGet, "interests/received/", nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *Client) ListSentInterests(ctx context.Context) ([]domain.InterestRequest, error) {
	var out []domain.InterestRequest
	if err := c.do(ctx, "list sent interests", http.MethodGet, "interests/sent/", nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

type sendInterestRequest struct {
	ToUser int64 `json:"to_user"`
}

func (c *Client) SendInterest(ctx context.Context, toUserID int64) error {
	return c.do(ctx, "send interest", http.MethodPost, "interests/", sendInterestRequest{ToUser: toUserID}, nil)
}

type handleInterestRequest struct {
	Status domain.InterestStatus `json:"status"`
}

func (c *Client) HandleInterest(ctx context.Context, interestID int64, status domain.InterestStatus) error {
	path := "interests/" + strconv.FormatInt(interestID, 10) + "/handle/"
	return c.do(ctx, "handle interest", http.MethodPost, path, handleInterestRequest{Status: status}, nil)
}

type createChatRoomRequest struct {
	ParticipantID int64 `json:"participant_id"`
}

func (c *Client) CreateOrGetChatRoom(ctx context.Context, participantID int64) (domain.ChatRoom, error) {
	var out domain.ChatRoom
	err := c.do(ctx, "create or get chat room", http.MethodPost, "chatrooms/create_or_get/", createChatRoomRequest{ParticipantID: participantID}, &out)
	if err != nil {
		return domain.ChatRoom{}, err
	}
	return out, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token. Rejected credentials are
// reported as domain.ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var out loginResponse
	err := c.do(ctx, "login", http.MethodPost, c.loginPath, loginRequest{Username: username, Password: password}, &out)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) {
			switch apiErr.Status {
			case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
				return "", domain.ErrInvalidCredentials
			}
		}
		return "", err
	}
	token := strings.TrimSpace(out.Token)
	if token == "" {
		return "", &Error{Op: "login", Status: http.StatusOK, Err: errors.New("response has no token")}
	}
	return token, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
