package mailer

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryMailTypeHasTemplate(t *testing.T) {
	b, err := NewBuilder("noreply@example.com")
	require.NoError(t, err)

	for _, typ := range []string{
		domain.MailTypeCreateUser,
		domain.MailTypeResetPassword,
		domain.MailTypeSwapRequestCreated,
		domain.MailTypeSwapRequestDecided,
		domain.MailTypeOvertimeRequestDecided,
	} {
		assert.Contains(t, b.templates, typ)
	}
}

func TestBuild(t *testing.T) {
	b, err := NewBuilder("noreply@example.com")
	require.NoError(t, err)

	// 消息经过队列之后 Data 会被解码为 map
	body, err := json.Marshal(domain.MailMessage{
		Type: domain.MailTypeSwapRequestCreated,
		To:   "u2@example.com",
		Data: domain.SwapRequestCreatedMailData{
			FullName:      "李四",
			RequesterName: "zhangsan",
			RequestID:     42,
			Reason:        "exam",
		},
	})
	require.NoError(t, err)

	msg, err := Decode(body)
	require.NoError(t, err)

	m, err := b.Build(msg)
	require.NoError(t, err)
	rcpts, err := m.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"u2@example.com"}, rcpts)

	var buf bytes.Buffer
	require.NoError(t, b.templates[msg.Type].Execute(&buf, msg.Data))
	assert.Contains(t, buf.String(), "zhangsan")
	assert.Contains(t, buf.String(), "42")
	assert.Contains(t, buf.String(), "exam")
}

func TestBuildErrors(t *testing.T) {
	b, err := NewBuilder("noreply@example.com")
	require.NoError(t, err)

	_, err = b.Build(domain.MailMessage{Type: "change_email", To: "u1@example.com"})
	var unknown *UnknownTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "change_email", unknown.Type)

	_, err = b.Build(domain.MailMessage{Type: domain.MailTypeCreateUser, To: "not an address"})
	require.Error(t, err)

	_, err = Decode([]byte("{"))
	require.Error(t, err)
	_, err = Decode([]byte(`{"type":"create_user"}`))
	require.Error(t, err)
}
