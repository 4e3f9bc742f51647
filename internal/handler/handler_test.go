package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/SimbaKVis/shift-manager/backend/internal/config"
	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
	"github.com/SimbaKVis/shift-manager/backend/internal/memstore"
	"github.com/SimbaKVis/shift-manager/backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	mu   sync.Mutex
	msgs []domain.MailMessage
	err  error
}

func (m *fakeMailer) PublishMail(ctx context.Context, msg domain.MailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msg)
	return nil
}

func (m *fakeMailer) sent() []domain.MailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]domain.MailMessage(nil), m.msgs...)
}

type fakeOTPStore struct {
	mu   sync.Mutex
	otps map[string]string
}

func (s *fakeOTPStore) SetOTP(ctx context.Context, key, otp string, expiration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.otps[key] = otp
	return nil
}

func (s *fakeOTPStore) GetOTP(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.otps[key], nil
}

func (s *fakeOTPStore) DeleteOTP(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.otps, key)
	return nil
}

type testServer struct {
	t      *testing.T
	h      *Handler
	svc    *service.Service
	mailer *fakeMailer
	otp    *fakeOTPStore

	admin, u1, u2 *domain.User
	overtime      *domain.ShiftType
	normal        *domain.ShiftType
}

func newTestServer(t *testing.T, approver string) *testServer {
	t.Helper()

	cfg := &config.Config{SwapApprover: approver}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expiration = 3600
	cfg.InitialAdmin.Username = "admin"
	cfg.OTP.Expiration = 900
	cfg.NewUser.PasswordLength = 12

	ts := &testServer{
		t:      t,
		svc:    service.New(memstore.New(), service.Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}),
		mailer: &fakeMailer{},
		otp:    &fakeOTPStore{otps: make(map[string]string)},
	}

	h, err := NewHandler(cfg, ts.svc, ts.mailer, ts.otp)
	require.NoError(t, err)
	h.RegisterRoutes()
	ts.h = h

	ts.admin = ts.user("admin", domain.RoleAdmin)
	ts.u1 = ts.user("u1", domain.RoleAgent)
	ts.u2 = ts.user("u2", domain.RoleAgent)

	ctx := context.Background()
	ts.normal, err = ts.svc.CreateShiftType(ctx, service.CreateShiftTypeInput{Name: "早班", DefaultDuration: 8, Category: domain.ShiftCategoryNormal})
	require.NoError(t, err)
	ts.overtime, err = ts.svc.CreateShiftType(ctx, service.CreateShiftTypeInput{Name: "周末加班", DefaultDuration: 4, Category: domain.ShiftCategoryOvertime})
	require.NoError(t, err)

	return ts
}

func (ts *testServer) user(username string, role domain.Role) *domain.User {
	user, err := ts.svc.CreateUser(context.Background(), service.CreateUserInput{
		Username: username,
		FullName: username,
		Email:    username + "@example.com",
		Role:     role,
		Password: "password",
	})
	require.NoError(ts.t, err)
	return user
}

func (ts *testServer) shift(userID int64, st *domain.ShiftType, start time.Time) *domain.Shift {
	shift, err := ts.svc.CreateShift(context.Background(), service.CreateShiftInput{
		UserID:      userID,
		ShiftTypeID: st.ID,
		StartTime:   start,
		EndTime:     start.Add(4 * time.Hour),
	})
	require.NoError(ts.t, err)
	return shift
}

// do 以 user 的身份发送请求，user 为 nil 时不带 cookie
func (ts *testServer) do(method, path string, user *domain.User, body any) *httptest.ResponseRecorder {
	ts.t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if user != nil {
		token, _, err := ts.h.issueToken(user, time.Now())
		require.NoError(ts.t, err)
		req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: token})
	}

	rec := httptest.NewRecorder()
	ts.h.Mux.ServeHTTP(rec, req)
	return rec
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.True(t, env.Success, env.Message)

	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()

	require.Equal(t, status, rec.Code, rec.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, status == http.StatusOK, env.Success)
}

func TestAuth(t *testing.T) {
	ts := newTestServer(t, config.SwapApproverAdmin)

	requireStatus(t, ts.do(http.MethodGet, "/my-info", nil, nil), http.StatusUnauthorized)

	req := httptest.NewRequest(http.MethodGet, "/my-info", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: "not-a-token"})
	rec := httptest.NewRecorder()
	ts.h.Mux.ServeHTTP(rec, req)
	requireStatus(t, rec, http.StatusUnauthorized)

	rec = ts.do(http.MethodPost, "/auth/login", nil, map[string]string{"username": "u1", "password": "wrong"})
	requireStatus(t, rec, http.StatusUnauthorized)

	rec = ts.do(http.MethodPost, "/auth/login", nil, map[string]string{"username": "u1"})
	requireStatus(t, rec, http.StatusBadRequest)

	rec = ts.do(http.MethodPost, "/auth/login", nil, map[string]string{"username": "u1", "password": "password"})
	requireStatus(t, rec, http.StatusOK)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, TokenCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	// 使用登录返回的 cookie 访问个人信息
	req = httptest.NewRequest(http.MethodGet, "/my-info", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	ts.h.Mux.ServeHTTP(rec, req)
	requireStatus(t, rec, http.StatusOK)
	myInfo := decode[domain.User](t, rec)
	assert.Equal(t, ts.u1.ID, myInfo.ID)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestDeletedUserTokenIsRejected(t *testing.T) {
	ts := newTestServer(t, config.SwapApproverAdmin)
	u3 := ts.user("u3", domain.RoleAgent)
	require.NoError(t, ts.svc.DeleteUser(context.Background(), u3.ID))

	requireStatus(t, ts.do(http.MethodGet, "/my-info", u3, nil), http.StatusUnauthorized)
}

func TestResetPassword(t *testing.T) {
	ts := newTestServer(t, config.SwapApproverAdmin)

	rec := ts.do(http.MethodPost, "/auth/reset-password/require", nil, map[string]string{"username": "u1"})
	requireStatus(t, rec, http.StatusOK)

	mails := ts.mailer.sent()
	require.Len(t, mails, 1)
	assert.Equal(t, domain.MailTypeResetPassword, mails[0].Type)
	assert.Equal(t, "u1@example.com", mails[0].To)
	data := mails[0].Data.(domain.ResetPasswordMailData)
	assert.Equal(t, 15, data.Expiration)

	// 用户不存在时同样返回成功，但不发送邮件
	rec = ts.do(http.MethodPost, "/auth/reset-password/require", nil, map[string]string{"username": "nobody"})
	requireStatus(t, rec, http.StatusOK)
	assert.Len(t, ts.mailer.sent(), 1)

	rec = ts.do(http.MethodPost, "/auth/reset-password/confirm", nil, map[string]string{"username": "u1", "otp": "wrong-otp", "password": "new-password"})
	requireStatus(t, rec, http.StatusBadRequest)

	rec = ts.do(http.MethodPost, "/auth/reset-password/confirm", nil, map[string]string{"username": "u1", "otp": data.OTP, "password": "new-password"})
	requireStatus(t, rec, http.StatusOK)

	// 验证码只能使用一次
	rec = ts.do(http.MethodPost, "/auth/reset-password/confirm", nil, map[string]string{"username": "u1", "otp": data.OTP, "password": "again"})
	requireStatus(t, rec, http.StatusBadRequest)

	rec = ts.do(http.MethodPost, "/auth/login", nil, map[string]string{"username": "u1", "password": "new-password"})
	requireStatus(t, rec, http.StatusOK)
}

func TestResetPasswordMailFailure(t *testing.T) {
	ts := newTestServer(t, config.SwapApproverAdmin)
	ts.mailer.err = errors.New("broker down")

	rec := ts.do(http.MethodPost, "/auth/reset-password/require", nil, map[string]string{"username": "u1"})
	requireStatus(t, rec, http.StatusInternalServerError)
}

func TestUserAdministration(t *testing.T) {
	ts := newTestServer(t, config.SwapApproverAdmin)
	body := map[string]string{"username": "u3", "fullName": "王五", "email": "u3@example.com", "role": "Agent"}

	requireStatus(t, ts.do(http.MethodPost, "/users", ts.u1, body), http.StatusForbidden)

	rec := ts.do(http.MethodPost, "/users", ts.admin, body)
	requireStatus(t, rec, http.StatusOK)
	created := decode[domain.User](t, rec)
	assert.Equal(t, "u3", created.Username)

	// 新用户的初始密码通过邮件发送
	mails := ts.mailer.sent()
	require.Len(t, mails, 1)
	assert.Equal(t, domain.MailTypeCreateUser, mails[0].Type)
	assert.Len(t, mails[0].Data.(domain.CreateUserMailData).Password, 12)

	requireStatus(t, ts.do(http.MethodPost, "/users", ts.admin, body), http.StatusBadRequest)

	body["username"], body["email"], body["role"] = "u4", "u4@example.com", "Boss"
	requireStatus(t, ts.do(http.MethodPost, "/users", ts.admin, body), http.StatusBadRequest)

	path := "/users/" + itoa(ts.admin.ID)
	requireStatus(t, ts.do(http.MethodDelete, path, ts.admin, nil), http.StatusForbidden)

	requireStatus(t, ts.do(http.MethodGet, "/users/abc", ts.admin, nil), http.StatusBadRequest)
	requireStatus(t, ts.do(http.MethodGet, "/users/999", ts.admin, nil), http.StatusNotFound)

	requireStatus(t, ts.do(http.MethodDelete, "/users/"+itoa(created.ID), ts.admin, nil), http.StatusOK)
}

func TestShiftEndpoints(t *testing.T) {
	ts := newTestServer(t, config.SwapApproverAdmin)
	start := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	body := map[string]any{
		"userID":      ts.u1.ID,
		"shiftTypeID": ts.normal.ID,
		"startTime":   start,
		"endTime":     start.Add(8 * time.Hour),
		"location":    "A 栋",
	}

	requireStatus(t, ts.do(http.MethodPost, "/shifts", ts.u1, body), http.StatusForbidden)

	rec := ts.do(http.MethodPost, "/shifts", ts.admin, body)
	requireStatus(t, rec, http.StatusOK)
	shift := decode[domain.Shift](t, rec)
	assert.Equal(t, int32(480), shift.Duration)
	assert.Equal(t, ts.admin.ID, shift.AssignedBy)

	body["endTime"] = start
	requireStatus(t, ts.do(http.MethodPost, "/shifts", ts.admin, body), http.StatusBadRequest)

	path := "/shifts/" + itoa(shift.ID)
	rec = ts.do(http.MethodPatch, path, ts.admin, map[string]any{"endTime": start.Add(10 * time.Hour)})
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, int32(600), decode[domain.Shift](t, rec).Duration)

	rec = ts.do(http.MethodGet, "/users/"+itoa(ts.u1.ID)+"/shifts", ts.u2, nil)
	requireStatus(t, rec, http.StatusOK)
	assert.Len(t, decode[[]domain.Shift](t, rec), 1)

	rec = ts.do(http.MethodPost, "/shifts/recurring", ts.admin, map[string]any{
		"userID":      ts.u2.ID,
		"shiftTypeID": ts.normal.ID,
		"rrule":       "FREQ=DAILY;COUNT=3",
		"startTime":   start,
		"endTime":     start.Add(8 * time.Hour),
	})
	requireStatus(t, rec, http.StatusOK)
	assert.Len(t, decode[[]domain.Shift](t, rec), 3)

	requireStatus(t, ts.do(http.MethodDelete, path, ts.u1, nil), http.StatusForbidden)
	requireStatus(t, ts.do(http.MethodDelete, path, ts.admin, nil), http.StatusOK)
	requireStatus(t, ts.do(http.MethodGet, path, ts.admin, nil), http.StatusNotFound)
}

func TestSwapRequestFlow(t *testing.T) {
	ts := newTestServer(t, config.SwapApproverAdmin)
	s1 := ts.shift(ts.u1.ID, ts.normal, time.Now().Add(24*time.Hour))
	s3 := ts.shift(ts.u2.ID, ts.normal, time.Now().Add(48*time.Hour))

	rec := ts.do(http.MethodPost, "/swap-requests", ts.u1, map[string]any{
		"requestedShiftID": s1.ID,
		"colleagueID":      ts.u2.ID,
		"colleagueShiftID": s3.ID,
		"reason":           "家里有事",
	})
	requireStatus(t, rec, http.StatusOK)
	swap := decode[domain.SwapRequest](t, rec)
	assert.Equal(t, domain.SwapStatusPending, swap.Status)

	mails := ts.mailer.sent()
	require.Len(t, mails, 1)
	assert.Equal(t, domain.MailTypeSwapRequestCreated, mails[0].Type)
	assert.Equal(t, "u2@example.com", mails[0].To)

	// 班次仍被待审批的申请引用，不能删除
	requireStatus(t, ts.do(http.MethodDelete, "/shifts/"+itoa(s1.ID), ts.admin, nil), http.StatusConflict)

	path := "/swap-requests/" + itoa(swap.ID)
	u3 := ts.user("u3", domain.RoleAgent)
	requireStatus(t, ts.do(http.MethodGet, path, u3, nil), http.StatusForbidden)
	requireStatus(t, ts.do(http.MethodGet, path, ts.u2, nil), http.StatusOK)
	requireStatus(t, ts.do(http.MethodGet, "/swap-requests/999", ts.admin, nil), http.StatusNotFound)

	// 默认只有管理员可以审批
	requireStatus(t, ts.do(http.MethodPatch, path+"/status", ts.u2, map[string]string{"status": "Approved"}), http.StatusForbidden)
	requireStatus(t, ts.do(http.MethodPatch, path+"/status", ts.admin, map[string]string{"status": "maybe"}), http.StatusBadRequest)

	rec = ts.do(http.MethodPatch, path+"/status", ts.admin, map[string]string{"status": "Approved"})
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, domain.SwapStatusApproved, decode[domain.SwapRequest](t, rec).Status)
	assert.Len(t, ts.mailer.sent(), 3)

	shift, err := ts.svc.GetShift(context.Background(), s1.ID)
	require.NoError(t, err)
	assert.Equal(t, ts.u2.ID, shift.UserID)

	requireStatus(t, ts.do(http.MethodPatch, path+"/status", ts.admin, map[string]string{"status": "Rejected"}), http.StatusConflict)

	rec = ts.do(http.MethodGet, "/users/"+itoa(ts.u1.ID)+"/swap-requests", ts.u1, nil)
	requireStatus(t, rec, http.StatusOK)
	assert.Len(t, decode[[]domain.SwapRequest](t, rec), 1)
	requireStatus(t, ts.do(http.MethodGet, "/users/"+itoa(ts.u1.ID)+"/swap-requests", ts.u2, nil), http.StatusForbidden)
}

func TestColleagueApprovesSwap(t *testing.T) {
	ts := newTestServer(t, config.SwapApproverColleague)
	s1 := ts.shift(ts.u1.ID, ts.normal, time.Now().Add(24*time.Hour))
	s3 := ts.shift(ts.u2.ID, ts.normal, time.Now().Add(48*time.Hour))

	swap, err := ts.svc.CreateSwapRequest(context.Background(), service.CreateSwapRequestInput{
		RequesterID:      ts.u1.ID,
		RequestedShiftID: s1.ID,
		ColleagueID:      ts.u2.ID,
		ColleagueShiftID: s3.ID,
		Reason:           "家里有事",
	})
	require.NoError(t, err)

	path := "/swap-requests/" + itoa(swap.ID) + "/status"
	requireStatus(t, ts.do(http.MethodPatch, path, ts.admin, map[string]string{"status": "Rejected"}), http.StatusForbidden)
	requireStatus(t, ts.do(http.MethodPatch, path, ts.u1, map[string]string{"status": "Approved"}), http.StatusForbidden)

	rec := ts.do(http.MethodPatch, path, ts.u2, map[string]string{"status": "rejected"})
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, domain.SwapStatusRejected, decode[domain.SwapRequest](t, rec).Status)
}

func TestOvertimeRequestFlow(t *testing.T) {
	ts := newTestServer(t, config.SwapApproverAdmin)
	shift := ts.shift(ts.u1.ID, ts.overtime, time.Now().Add(48*time.Hour))
	past := ts.shift(ts.u1.ID, ts.overtime, time.Now().Add(-72*time.Hour))

	rec := ts.do(http.MethodGet, "/users/"+itoa(ts.u1.ID)+"/eligible-shifts", ts.u1, nil)
	requireStatus(t, rec, http.StatusOK)
	eligible := decode[[]domain.Shift](t, rec)
	require.Len(t, eligible, 1)
	assert.Equal(t, shift.ID, eligible[0].ID)

	requireStatus(t, ts.do(http.MethodPost, "/overtime-requests", ts.u1, map[string]any{"shiftID": past.ID, "reason": "顶班"}), http.StatusBadRequest)
	requireStatus(t, ts.do(http.MethodPost, "/overtime-requests", ts.u2, map[string]any{"shiftID": shift.ID, "reason": "顶班"}), http.StatusBadRequest)

	rec = ts.do(http.MethodPost, "/overtime-requests", ts.u1, map[string]any{"shiftID": shift.ID, "reason": "顶班"})
	requireStatus(t, rec, http.StatusOK)
	overtime := decode[domain.OvertimeRequest](t, rec)
	assert.Equal(t, domain.OvertimeStatusPending, overtime.Status)
	assert.Equal(t, shift.Duration, overtime.Duration)

	path := "/overtime-requests/" + itoa(overtime.ID)
	requireStatus(t, ts.do(http.MethodGet, path, ts.u2, nil), http.StatusForbidden)
	requireStatus(t, ts.do(http.MethodGet, path, ts.u1, nil), http.StatusOK)
	requireStatus(t, ts.do(http.MethodGet, "/overtime-requests", ts.u1, nil), http.StatusForbidden)
	requireStatus(t, ts.do(http.MethodPatch, path+"/status", ts.u1, map[string]string{"status": "approved"}), http.StatusForbidden)

	rec = ts.do(http.MethodPatch, path+"/status", ts.admin, map[string]string{"status": "approved"})
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, domain.OvertimeStatusApproved, decode[domain.OvertimeRequest](t, rec).Status)

	mails := ts.mailer.sent()
	require.Len(t, mails, 1)
	assert.Equal(t, domain.MailTypeOvertimeRequestDecided, mails[0].Type)

	requireStatus(t, ts.do(http.MethodPatch, path+"/status", ts.admin, map[string]string{"status": "rejected"}), http.StatusConflict)

	rec = ts.do(http.MethodGet, "/dashboard", ts.admin, nil)
	requireStatus(t, rec, http.StatusOK)
	sum := decode[service.Summary](t, rec)
	assert.Equal(t, 3, sum.Users)
	assert.Equal(t, 2, sum.Shifts)
	assert.Equal(t, 0, sum.PendingOvertimeRequests)
}

func TestMailFailureDoesNotFailWrite(t *testing.T) {
	ts := newTestServer(t, config.SwapApproverAdmin)
	ts.mailer.err = errors.New("broker down")
	s1 := ts.shift(ts.u1.ID, ts.normal, time.Now().Add(24*time.Hour))
	s3 := ts.shift(ts.u2.ID, ts.normal, time.Now().Add(48*time.Hour))

	rec := ts.do(http.MethodPost, "/swap-requests", ts.u1, map[string]any{
		"requestedShiftID": s1.ID,
		"colleagueID":      ts.u2.ID,
		"colleagueShiftID": s3.ID,
		"reason":           "家里有事",
	})
	requireStatus(t, rec, http.StatusOK)
}
